package models

import "strconv"

func itoa(i int) string { return strconv.Itoa(i) }

// AdminFromPortfolio converts a portfolio entry to the admin shape:
// technologies become tags, projectDate becomes date and the id is stringified.
func AdminFromPortfolio(e PortfolioEntry) AdminProject {
	source := e.ID
	return AdminProject{
		ID:           itoa(e.ID),
		Title:        e.Title,
		Description:  e.Description,
		Category:     string(e.Category),
		Date:         e.ProjectDate,
		Featured:     e.Featured,
		ProjectURL:   e.ProjectURL,
		GithubURL:    e.GithubURL,
		Image:        e.Image,
		Thumb:        e.Thumb,
		Video:        e.Video,
		Tags:         cloneStrings(e.Technologies),
		ExternalOnly: e.ExternalOnly,
		SourceID:     &source,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// PortfolioFromAdmin converts an admin record back to a portfolio entry using id.
func PortfolioFromAdmin(p AdminProject, id int) PortfolioEntry {
	return PortfolioEntry{
		ID:           id,
		Category:     Category(p.Category),
		Title:        p.Title,
		Description:  p.Description,
		Image:        p.Image,
		Thumb:        p.Thumb,
		Video:        p.Video,
		Technologies: cloneStrings(p.Tags),
		ProjectDate:  p.Date,
		Featured:     p.Featured,
		ProjectURL:   p.ProjectURL,
		GithubURL:    p.GithubURL,
		ExternalOnly: p.ExternalOnly,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ApplyPortfolio rewrites p from e while keeping p's own id and source id.
func ApplyPortfolio(p AdminProject, e PortfolioEntry) AdminProject {
	next := AdminFromPortfolio(e)
	next.ID = p.ID
	next.SourceID = p.SourceID
	return next
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
