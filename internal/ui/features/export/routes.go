package export

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// SetupRoutes registers the export feature routes.
func SetupRoutes(
	router chi.Router,
	sessions *session.Manager,
	store *catalog.Store,
	exporter *query.Exporter,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(sessions, store, exporter, logger)

	router.Post("/export", handlers.Export)

	return nil
}
