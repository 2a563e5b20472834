// Package export provides the streaming CSV download handler.
package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// Handlers provides HTTP handlers for the export feature.
type Handlers struct {
	sessions *session.Manager
	catalog  *catalog.Store
	exporter *query.Exporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessions *session.Manager, store *catalog.Store, exporter *query.Exporter, logger *slog.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		catalog:  store,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Export re-runs the submitted script and streams the first result set as
// a CSV attachment. The export is started before any header is written so
// connection and statement errors still render as a normal error page.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		_ = h.sessions.Flash(w, r, "Database credentials are missing or expired. Please log in.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	script := r.PostFormValue("sql")
	separator := r.PostFormValue("separator")

	params := query.ConnectParams{
		Host:     cred.Host,
		User:     cred.User,
		Password: cred.Secret,
		Database: cred.ResolveDatabase(r.PostFormValue("selected_db")),
	}

	stream, err := h.exporter.Start(r.Context(), params, script, separator)
	if err != nil {
		h.logger.Warn("export failed to start", "error", err)
		_ = h.sessions.Flash(w, r, "Export failed: "+err.Error())
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	base := "query"
	if q, ok, err := h.catalog.FindByScript(script); err == nil && ok {
		base = q.Name
	}
	filename := query.ExportFilename(base, h.now())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := stream.WriteTo(r.Context(), w); err != nil {
		// Headers are out; all we can do is cut the stream and log.
		h.logger.Error("export stream aborted", "error", err)
	}
}
