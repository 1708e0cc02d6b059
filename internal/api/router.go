package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Get("/auth/google", apiHandler.GoogleLoginHandler)
		r.Get("/auth/google/callback", apiHandler.GoogleCallbackHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes (header token or widget query token)
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/auth/user-data", apiHandler.UserDataHandler)
			r.Get("/embed-code", apiHandler.EmbedCodeHandler)

			// Document routes
			r.Post("/uploads", apiHandler.UploadHandler)
			r.Get("/uploads", apiHandler.ListUploadsHandler)
			r.Get("/uploads/search", apiHandler.SearchUploadsHandler)

			// Personality routes
			r.Post("/personalities", apiHandler.CreatePersonalityHandler)
			r.Get("/personalities", apiHandler.ListPersonalitiesHandler)

			// Dashboard chat (client-held context state)
			r.Post("/chat", apiHandler.ChatHandler)

			// Embeddable widget (server-held context state)
			r.Get("/chatbot", apiHandler.ChatbotWidgetHandler)
			r.Post("/chatbot/sessions", apiHandler.CreateWidgetSessionHandler)
			r.Post("/chatbot/sessions/{sessionID}/messages", apiHandler.WidgetMessageHandler)

			r.Post("/ratings", apiHandler.RatingHandler)
			r.Get("/history", apiHandler.HistoryHandler)
		})
	})

	return r
}
