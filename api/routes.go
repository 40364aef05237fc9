package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-backend/auth"
)

// setupRoutes wires the public pages and the admin surface
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/healthz", handlers.healthHandler.health())

		// Public portfolio
		r.Get("/portfolio", handlers.portfolioHandler.listEntries())
		r.Get("/portfolio/{entryID}", handlers.portfolioHandler.getEntry())
		r.Post("/auth/login", handlers.authHandler.login())

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Post("/auth/logout", handlers.authHandler.logout())

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.require(auth.PermProjectsRead))
				r.Get("/portfolio/export", handlers.portfolioHandler.exportEntries())
				r.Get("/admin/projects", handlers.adminHandler.listProjects())
				r.Get("/admin/projects/{projectID}", handlers.adminHandler.getProject())
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.require(auth.PermProjectsWrite))
				r.Post("/portfolio", handlers.portfolioHandler.createEntry())
				r.Put("/portfolio/{entryID}", handlers.portfolioHandler.updateEntry())
				r.Delete("/portfolio/{entryID}", handlers.portfolioHandler.deleteEntry())
				r.Post("/portfolio/{entryID}/featured", handlers.portfolioHandler.toggleFeatured())
				r.Post("/portfolio/import", handlers.portfolioHandler.importEntries())

				r.Post("/admin/projects", handlers.adminHandler.createProject())
				r.Put("/admin/projects/{projectID}", handlers.adminHandler.updateProject())
				r.Delete("/admin/projects/{projectID}", handlers.adminHandler.deleteProject())
				r.Delete("/admin/projects", handlers.adminHandler.deleteProjects())
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.require(auth.PermPortfolioSync))
				r.Post("/admin/sync", handlers.syncHandler.runSync())
				r.Get("/admin/sync/status", handlers.syncHandler.getStatus())
				r.Get("/admin/sync/duplicates", handlers.syncHandler.previewDuplicates())
				r.Delete("/admin/sync/status", handlers.syncHandler.resetStatus())
			})
		})
	})
}
