package portfolio

import (
	"strings"
	"time"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

const dateLayout = "2006-01-02"

// EntryInput holds the caller-supplied fields of a new entry.
type EntryInput struct {
	Category     models.Category `json:"category"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Thumb        string          `json:"thumb"`
	Video        string          `json:"video"`
	Technologies []string        `json:"technologies"`
	ProjectDate  string          `json:"projectDate"`
	Featured     bool            `json:"featured"`
	ProjectURL   string          `json:"projectUrl"`
	GithubURL    string          `json:"githubUrl"`
	ExternalOnly bool            `json:"externalOnly"`
}

// Validate checks the fields the public pages rely on.
func (in EntryInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errs.NewMissingRequiredFieldError("title")
	}
	if !in.Category.Valid() {
		return errs.NewInvalidFieldError("category", "must be one of image, video, 3d")
	}
	return validateDate(in.ProjectDate)
}

func (in EntryInput) entry(id int, now time.Time) models.PortfolioEntry {
	technologies := in.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	return models.PortfolioEntry{
		ID:           id,
		Category:     in.Category,
		Title:        in.Title,
		Description:  in.Description,
		Image:        in.Image,
		Thumb:        in.Thumb,
		Video:        in.Video,
		Technologies: append(make([]string, 0, len(technologies)), technologies...),
		ProjectDate:  in.ProjectDate,
		Featured:     in.Featured,
		ProjectURL:   in.ProjectURL,
		GithubURL:    in.GithubURL,
		ExternalOnly: in.ExternalOnly,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EntryPatch is a partial update; nil fields are left untouched.
type EntryPatch struct {
	Category     *models.Category `json:"category"`
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Image        *string          `json:"image"`
	Thumb        *string          `json:"thumb"`
	Video        *string          `json:"video"`
	Technologies []string         `json:"technologies"`
	ProjectDate  *string          `json:"projectDate"`
	Featured     *bool            `json:"featured"`
	ProjectURL   *string          `json:"projectUrl"`
	GithubURL    *string          `json:"githubUrl"`
	ExternalOnly *bool            `json:"externalOnly"`
}

func (p EntryPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return errs.NewMissingRequiredFieldError("title")
	}
	if p.Category != nil && !p.Category.Valid() {
		return errs.NewInvalidFieldError("category", "must be one of image, video, 3d")
	}
	if p.ProjectDate != nil {
		return validateDate(*p.ProjectDate)
	}
	return nil
}

func (p EntryPatch) apply(e *models.PortfolioEntry) {
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.Thumb != nil {
		e.Thumb = *p.Thumb
	}
	if p.Video != nil {
		e.Video = *p.Video
	}
	if p.Technologies != nil {
		e.Technologies = append(make([]string, 0, len(p.Technologies)), p.Technologies...)
	}
	if p.ProjectDate != nil {
		e.ProjectDate = *p.ProjectDate
	}
	if p.Featured != nil {
		e.Featured = *p.Featured
	}
	if p.ProjectURL != nil {
		e.ProjectURL = *p.ProjectURL
	}
	if p.GithubURL != nil {
		e.GithubURL = *p.GithubURL
	}
	if p.ExternalOnly != nil {
		e.ExternalOnly = *p.ExternalOnly
	}
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return errs.NewInvalidFieldError("projectDate", "expected YYYY-MM-DD")
	}
	return nil
}
