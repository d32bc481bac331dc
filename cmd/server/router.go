package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/concordsrs/concord-api/internal/api"
	apiMiddleware "github.com/concordsrs/concord-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenValidator)
	reviewHandler := api.NewReviewHandler(app.recorder, app.queueSelector, app.logger)
	phrasingHandler := api.NewPhrasingHandler(app.phrasingService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Review endpoints
			r.Post("/interactions", reviewHandler.RecordInteraction)
			r.Get("/queue", reviewHandler.GetQueue)
			r.Post("/concepts/{id}/postpone", reviewHandler.Postpone)
			r.Get("/stats", reviewHandler.GetStats)

			// Phrasing endpoints
			r.Get("/concepts/{id}/phrasings", phrasingHandler.ListPhrasings)
			r.Post("/concepts/{id}/phrasings", phrasingHandler.CreatePhrasing)
			r.Post("/phrasings/{id}/canonical", phrasingHandler.SetCanonical)
			r.Post("/phrasings/{id}/archive", phrasingHandler.ArchivePhrasing)
			r.Get("/questions/{id}/options", phrasingHandler.GetOptions)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
