package models

import "time"

// SyncStatus marks that the admin dataset has become the source of truth.
type SyncStatus struct {
	Synced       bool      `json:"synced"`
	ProjectCount int       `json:"projectCount"`
	SyncDate     time.Time `json:"syncDate"`
}
