// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
	authFeature "github.com/leapstack-labs/querypad/internal/ui/features/auth"
	exportFeature "github.com/leapstack-labs/querypad/internal/ui/features/export"
	workspaceFeature "github.com/leapstack-labs/querypad/internal/ui/features/workspace"
)

// Deps bundles what the feature handlers need.
type Deps struct {
	Sessions *session.Manager
	Catalog  *catalog.Store
	Executor *query.Executor
	Browser  *query.Browser
	Lister   *query.Lister
	Exporter *query.Exporter
	Logger   *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	if err := workspaceFeature.SetupRoutes(router, deps.Sessions, deps.Catalog, deps.Executor, deps.Browser, deps.Lister, deps.Logger); err != nil {
		return err
	}

	if err := authFeature.SetupRoutes(router, deps.Sessions, deps.Lister, deps.Logger); err != nil {
		return err
	}

	if err := exportFeature.SetupRoutes(router, deps.Sessions, deps.Catalog, deps.Exporter, deps.Logger); err != nil {
		return err
	}

	return nil
}
