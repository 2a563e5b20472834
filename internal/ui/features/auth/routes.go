package auth

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// SetupRoutes registers the auth feature routes.
func SetupRoutes(router chi.Router, sessions *session.Manager, lister *query.Lister, logger *slog.Logger) error {
	handlers := NewHandlers(sessions, lister, logger)

	router.Post("/login", handlers.Login)
	router.Post("/logout", handlers.Logout)
	router.Post("/set_db", handlers.SetDatabase)

	return nil
}
