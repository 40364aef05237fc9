package syncbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-backend/models"
)

// descriptionPrefix is how many runes of the description are compared.
const descriptionPrefix = 100

type ConflictType string

const (
	ConflictTitle       ConflictType = "title"
	ConflictDescription ConflictType = "description"
	ConflictBoth        ConflictType = "both"
	ConflictSource      ConflictType = "source"
)

// Duplicate is one (incoming, existing) pair that looks like the same project.
type Duplicate struct {
	Incoming     models.AdminProject `json:"incoming"`
	Existing     models.AdminProject `json:"existing"`
	ConflictType ConflictType        `json:"conflictType"`
}

// Transform converts a portfolio entry to the admin shape.
func Transform(e models.PortfolioEntry) models.AdminProject {
	return models.AdminFromPortfolio(e)
}

func TransformAll(entries []models.PortfolioEntry) []models.AdminProject {
	out := make([]models.AdminProject, len(entries))
	for i, e := range entries {
		out[i] = Transform(e)
	}
	return out
}

// Validate returns one message per missing required field. An empty result
// means the record can be synced.
func Validate(p models.AdminProject) []string {
	label := strings.TrimSpace(p.Title)
	if label == "" {
		label = "#" + p.ID
	}

	var problems []string
	for _, f := range []struct{ name, value string }{
		{"title", p.Title},
		{"description", p.Description},
		{"category", p.Category},
		{"date", p.Date},
	} {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, fmt.Sprintf("Project %s: %s is required", strconv.Quote(label), f.name))
		}
	}
	return problems
}

// DetectDuplicates compares every incoming record with every existing one.
func DetectDuplicates(incoming, existing []models.AdminProject) []Duplicate {
	dups := []Duplicate{}
	for _, m := range detect(incoming, existing) {
		dups = append(dups, m.Duplicate)
	}
	return dups
}

type match struct {
	Duplicate
	incoming, existing int
}

func detect(incoming, existing []models.AdminProject) []match {
	var matches []match
	for i, in := range incoming {
		for j, ex := range existing {
			if conflict, ok := compare(in, ex); ok {
				matches = append(matches, match{
					Duplicate: Duplicate{Incoming: in, Existing: ex, ConflictType: conflict},
					incoming:  i,
					existing:  j,
				})
			}
		}
	}
	return matches
}

func compare(in, ex models.AdminProject) (ConflictType, bool) {
	title := sameTitle(in.Title, ex.Title)
	desc := sameDescription(in.Description, ex.Description)
	switch {
	case title && desc:
		return ConflictBoth, true
	case title:
		return ConflictTitle, true
	case desc:
		return ConflictDescription, true
	case in.SourceID != nil && ex.SourceID != nil && *in.SourceID == *ex.SourceID:
		return ConflictSource, true
	}
	return "", false
}

func sameTitle(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func sameDescription(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return strings.EqualFold(prefix(a), prefix(b))
}

func prefix(s string) string {
	runes := []rune(s)
	if len(runes) > descriptionPrefix {
		runes = runes[:descriptionPrefix]
	}
	return string(runes)
}

// backfill copies fields the existing record lacks from the incoming one and
// reports whether anything changed.
func backfill(ex *models.AdminProject, in models.AdminProject) bool {
	changed := fill(&ex.ProjectURL, in.ProjectURL)
	changed = fill(&ex.GithubURL, in.GithubURL) || changed
	changed = fill(&ex.Image, in.Image) || changed
	changed = fill(&ex.Thumb, in.Thumb) || changed
	if len(ex.Tags) == 0 && len(in.Tags) > 0 {
		ex.Tags = append([]string{}, in.Tags...)
		changed = true
	}
	return changed
}

func fill(dst *string, src string) bool {
	if *dst != "" || src == "" {
		return false
	}
	*dst = src
	return true
}
