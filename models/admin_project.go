package models

import "time"

// AdminProject is the record shape edited from the admin dashboard.
// Its ID lives in a separate identity space from PortfolioEntry.ID; SourceID
// carries the originating portfolio id for records created by a sync and
// ExternalOnly keeps the portfolio redirect flag across a sync.
type AdminProject struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Date         string    `json:"date"`
	Featured     bool      `json:"featured"`
	ProjectURL   string    `json:"projectUrl,omitempty"`
	GithubURL    string    `json:"githubUrl,omitempty"`
	Image        string    `json:"image,omitempty"`
	Thumb        string    `json:"thumb,omitempty"`
	Video        string    `json:"video,omitempty"`
	Tags         []string  `json:"tags"`
	ExternalOnly bool      `json:"externalOnly,omitempty"`
	SourceID     *int      `json:"sourceId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
