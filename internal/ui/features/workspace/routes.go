package workspace

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// SetupRoutes registers the workspace feature routes.
func SetupRoutes(
	router chi.Router,
	sessions *session.Manager,
	store *catalog.Store,
	executor *query.Executor,
	browser *query.Browser,
	lister *query.Lister,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(sessions, store, executor, browser, lister, logger)

	router.Get("/", handlers.Index)
	router.Post("/run", handlers.Run)
	router.Post("/load", handlers.Load)
	router.Post("/save", handlers.Save)
	router.Post("/delete", handlers.Delete)

	return nil
}
