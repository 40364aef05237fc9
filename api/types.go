package api

import (
	"time"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/syncbridge"
)

// Services are the domain components the HTTP layer exposes.
type Services struct {
	Store    *portfolio.Store
	Provider *admin.Provider
	Bridge   *syncbridge.Bridge
	Gate     *auth.Gate
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	portfolioHandler portfolioHandler
	adminHandler     adminHandler
	syncHandler      syncHandler
	authHandler      authHandler
	healthHandler    healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// detailBase is where the public site serves a single entry.
const detailBase = "/portfolio"

// PortfolioEntryResponse adds where a visitor should be sent for the entry:
// the project page for externalOnly entries, the detail view otherwise.
type PortfolioEntryResponse struct {
	models.PortfolioEntry
	DetailURL string `json:"detailUrl"`
}

func entryResponse(e models.PortfolioEntry) PortfolioEntryResponse {
	return PortfolioEntryResponse{PortfolioEntry: e, DetailURL: e.DetailURL(detailBase)}
}

func entryResponses(entries []models.PortfolioEntry) []PortfolioEntryResponse {
	out := make([]PortfolioEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryResponse(e)
	}
	return out
}

// StatusResponse is the body of mutations that return no record.
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the new session and when it lapses.
type LoginResponse struct {
	Token       string    `json:"token"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ImportResponse reports how many entries an import stored.
type ImportResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PreviewResponse lists what a sync would run into.
type PreviewResponse struct {
	Duplicates []syncbridge.Duplicate `json:"duplicates"`
	Errors     []string               `json:"errors"`
}

// DeleteManyResponse lists the ids that were removed.
type DeleteManyResponse struct {
	Data []string `json:"data"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	StartupTime time.Time `json:"startupTime"`
	Uptime      string    `json:"uptime"`
}
