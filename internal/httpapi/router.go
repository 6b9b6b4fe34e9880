package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(opts Options) http.Handler {
	api := NewAPI(opts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(api.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		// Streaming stays outside the request timeout.
		r.Get("/sessions/{id}/events", api.HandleSessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(api.timeout))

			r.Post("/sessions", api.HandleStartSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", api.HandleGetSession)
				r.Delete("/", api.HandleEndSession)
				r.Post("/select", api.HandleSelectAnswer)
				r.Post("/advance", api.HandleAdvance)
				r.Post("/retreat", api.HandleRetreat)
				r.Get("/result", api.HandleSessionResult)
				r.Get("/certificate", api.HandleCertificate)
			})

			r.Get("/leaderboard", api.HandleLeaderboard)
			r.Get("/leaderboard/export", api.HandleLeaderboardExport)
			r.Get("/results/export", api.HandleResultsExport)

			r.Post("/admin/login", api.HandleAdminLogin)
			r.Route("/admin", func(r chi.Router) {
				r.Use(api.auth.Middleware)

				r.Get("/questions", api.HandleListQuestions)
				r.Post("/questions", api.HandleAddQuestion)
				r.Post("/questions/import", api.HandleImportQuestions)
				r.Post("/questions/fetch", api.HandleFetchQuestions)
				r.Get("/questions/export", api.HandleExportQuestions)
				r.Put("/questions/{questionID}", api.HandleUpdateQuestion)
				r.Delete("/questions/{questionID}", api.HandleDeleteQuestion)

				r.Get("/banks", api.HandleListBanks)
				r.Post("/banks", api.HandleCreateBank)
				r.Delete("/banks/{bankID}", api.HandleDeleteBank)
			})
		})
	})

	return r
}
