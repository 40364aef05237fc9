package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(services Services, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		portfolioHandler: newPortfolioHandler(services.Store),
		adminHandler:     newAdminHandler(services.Provider),
		syncHandler:      newSyncHandler(services.Bridge),
		authHandler:      newAuthHandler(services.Gate),
		healthHandler:    newHealthHandler(startupTime),
	}
}
