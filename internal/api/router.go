package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"apshelper.com/job-helper/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, m *metrics.Metrics, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(corsHandler(corsOrigins))
	r.Use(m.Middleware)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/", apiHandler.RootHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// Entries
		r.Get("/entries", apiHandler.ListEntriesHandler)
		r.Delete("/entries/{id}", apiHandler.DeleteEntryHandler)
		r.Get("/tags", apiHandler.ListTagsHandler)
		r.Post("/store", apiHandler.StoreEntryHandler)

		// Chat
		r.Post("/chat", apiHandler.ChatHandler)
		r.Get("/chat/{sessionID}", apiHandler.ChatHistoryHandler)

		// Work examples
		r.Get("/work-examples", apiHandler.ListWorkExamplesHandler)
		r.Post("/work-examples", apiHandler.CreateWorkExampleHandler)
		r.Put("/work-examples/{id}", apiHandler.UpdateWorkExampleHandler)
		r.Delete("/work-examples/{id}", apiHandler.DeleteWorkExampleHandler)
		r.Get("/filters", apiHandler.FiltersHandler)

		// Assessments
		r.Post("/assess", apiHandler.AssessHandler)
		r.Post("/assessments/save", apiHandler.SaveAssessmentHandler)
		r.Get("/assessments", apiHandler.ListAssessmentsHandler)
	})

	return r
}

// corsHandler allows the listed origins ("*" for any) and answers
// preflight requests itself.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:       []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:               300,
	})
}
