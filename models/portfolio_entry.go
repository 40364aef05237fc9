package models

import "time"

// Category is the kind of media a portfolio entry showcases.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	Category3D    Category = "3d"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryImage, CategoryVideo, Category3D}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PortfolioEntry is one item shown on the public portfolio pages.
type PortfolioEntry struct {
	ID           int       `json:"id"`
	Category     Category  `json:"category"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Image        string    `json:"image,omitempty"`
	Thumb        string    `json:"thumb,omitempty"`
	Video        string    `json:"video,omitempty"`
	Technologies []string  `json:"technologies"`
	ProjectDate  string    `json:"projectDate"`
	Featured     bool      `json:"featured"`
	ProjectURL   string    `json:"projectUrl,omitempty"`
	GithubURL    string    `json:"githubUrl,omitempty"`
	ExternalOnly bool      `json:"externalOnly,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DetailURL is where a client should send the visitor for this entry: the
// external project page for externalOnly entries, the internal detail view otherwise.
func (e PortfolioEntry) DetailURL(internalBase string) string {
	if e.ExternalOnly && e.ProjectURL != "" {
		return e.ProjectURL
	}
	return internalBase + "/" + itoa(e.ID)
}
