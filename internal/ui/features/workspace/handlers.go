// Package workspace provides handlers for the main page: the SQL editor,
// statement results, table browsing, and the saved-query catalog actions.
package workspace

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
	"github.com/leapstack-labs/querypad/internal/ui/view"
)

// GuardMessage is shown when an action needs a credential that is missing
// or has expired.
const GuardMessage = "Database credentials are missing or expired. Please log in."

// Handlers provides HTTP handlers for the workspace feature.
type Handlers struct {
	sessions *session.Manager
	catalog  *catalog.Store
	executor *query.Executor
	browser  *query.Browser
	lister   *query.Lister
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	sessions *session.Manager,
	store *catalog.Store,
	executor *query.Executor,
	browser *query.Browser,
	lister *query.Lister,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		sessions: sessions,
		catalog:  store,
		executor: executor,
		browser:  browser,
		lister:   lister,
		logger:   logger,
	}
}

// Index renders the login form or the workspace. A ?load= parameter pulls
// a saved query into the editor first; ?view=table switches the main panel
// to a table page.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		h.renderLogin(w, r, "")
		return
	}

	if id := r.URL.Query().Get("load"); id != "" {
		h.loadSavedQuery(w, r, id)
		return
	}

	data := h.buildWorkspaceData(w, r, cred)

	if r.URL.Query().Get("view") == "table" {
		table := r.URL.Query().Get("table")
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		params := connectParams(cred, r.URL.Query().Get("selected_db"))
		tv, err := h.browser.Browse(r.Context(), params, table, page)
		if err != nil {
			data.Error = err.Error()
		} else {
			data.TableView = tv
			// Browsing resets the impact counter to the rows on screen.
			impact := int64(len(tv.Rows))
			if err := h.sessions.SetRowImpact(w, r, impact); err != nil {
				h.logger.Error("session write failed", "error", err)
			}
			data.RowImpact = impact
		}
	}

	h.render(w, data)
}

// Run executes the editor buffer and renders the outcomes inline.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		_ = h.sessions.Flash(w, r, GuardMessage)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	script := r.PostFormValue("sql")
	if err := h.sessions.SetCurrentSQL(w, r, script); err != nil {
		h.logger.Error("session write failed", "error", err)
	}

	params := connectParams(cred, r.PostFormValue("selected_db"))
	outcomes, err := h.executor.Execute(r.Context(), params, script)

	data := h.buildWorkspaceData(w, r, cred)
	data.SQL = script
	if err != nil {
		h.logger.Warn("script failed", "error", err)
		data.Error = err.Error()
		h.render(w, data)
		return
	}

	// Each run replaces the counter with this script's total.
	impact := query.RowImpact(outcomes)
	if err := h.sessions.SetRowImpact(w, r, impact); err != nil {
		h.logger.Error("session write failed", "error", err)
	}

	data.Outcomes = outcomes
	data.RowImpact = impact
	h.render(w, data)
}

// Load copies the submitted catalog entry into the editor buffer.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		_ = h.sessions.Flash(w, r, GuardMessage)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.loadSavedQuery(w, r, r.PostFormValue("id"))
}

// Save upserts the editor buffer into the catalog under the submitted
// name. An id ties the save to an existing entry.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		_ = h.sessions.Flash(w, r, GuardMessage)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	script := r.PostFormValue("sql")
	if err := h.sessions.SetCurrentSQL(w, r, script); err != nil {
		h.logger.Error("session write failed", "error", err)
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		_ = h.sessions.Flash(w, r, "Please provide a name to save the query.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	q, err := h.catalog.Upsert(r.PostFormValue("id"), name, script)
	if err != nil {
		h.logger.Error("catalog save failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.sessions.SetEditing(w, r, q.ID); err != nil {
		h.logger.Error("session write failed", "error", err)
	}
	_ = h.sessions.Flash(w, r, fmt.Sprintf("Saved query '%s'.", q.Name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes the submitted catalog entry. Deleting the entry the
// editor is working on detaches the editor.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	cred := h.sessions.Credential(r)
	if cred == nil {
		_ = h.sessions.Flash(w, r, GuardMessage)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id := r.PostFormValue("id")
	q, ok, err := h.catalog.Get(id)
	if err != nil {
		h.logger.Error("catalog read failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if ok {
		if err := h.catalog.Delete(id); err != nil {
			h.logger.Error("catalog delete failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if h.sessions.Editing(r) == id {
			_ = h.sessions.ClearEditing(w, r)
		}
		_ = h.sessions.Flash(w, r, fmt.Sprintf("Deleted query '%s'.", q.Name))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadSavedQuery copies a catalog entry into the editor buffer and
// redirects to a clean URL.
func (h *Handlers) loadSavedQuery(w http.ResponseWriter, r *http.Request, id string) {
	q, ok, err := h.catalog.Get(id)
	if err != nil {
		h.logger.Error("catalog read failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		_ = h.sessions.Flash(w, r, "Saved query not found.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.sessions.SetCurrentSQL(w, r, q.SQL); err != nil {
		h.logger.Error("session write failed", "error", err)
	}
	if err := h.sessions.SetEditing(w, r, q.ID); err != nil {
		h.logger.Error("session write failed", "error", err)
	}
	_ = h.sessions.Flash(w, r, fmt.Sprintf("Loaded query '%s'.", q.Name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := view.LoginData{
		Messages: h.sessions.Flashes(w, r),
		Error:    errMsg,
	}
	if err := view.Login(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) render(w http.ResponseWriter, data view.WorkspaceData) {
	if err := view.Workspace(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// buildWorkspaceData assembles the sidebar and editor state. Listing
// failures degrade to a message instead of failing the page: the editor
// must stay usable when the server is unreachable.
func (h *Handlers) buildWorkspaceData(w http.ResponseWriter, r *http.Request, cred *session.Credential) view.WorkspaceData {
	data := view.WorkspaceData{
		Label:            cred.Label,
		SelectedDatabase: cred.ResolveDatabase(""),
		RowImpact:        h.sessions.RowImpact(r),
		Messages:         h.sessions.Flashes(w, r),
	}

	data.SQL = h.sessions.CurrentSQL(r)
	if data.SQL == "" {
		data.SQL = view.DefaultSQL
	}

	if id := h.sessions.Editing(r); id != "" {
		if q, ok, err := h.catalog.Get(id); err == nil && ok {
			data.EditingID = q.ID
			data.EditingName = q.Name
		}
	}

	saved, err := h.catalog.List()
	if err != nil {
		h.logger.Error("catalog list failed", "error", err)
		data.Messages = append(data.Messages, "Could not read saved queries: "+err.Error())
	}
	data.Saved = saved

	databases, err := h.lister.Databases(r.Context(), connectParams(cred, ""))
	if err != nil {
		h.logger.Warn("database listing failed", "error", err)
		data.Messages = append(data.Messages, "Could not list databases: "+err.Error())
	}
	data.Databases = databases

	if data.SelectedDatabase != "" {
		tables, err := h.lister.Tables(r.Context(), connectParams(cred, ""))
		if err != nil {
			h.logger.Warn("table listing failed", "error", err)
			data.Messages = append(data.Messages, "Could not list tables: "+err.Error())
		}
		data.Tables = tables
	}

	return data
}

// connectParams builds connection parameters from a stored credential,
// optionally overriding the database.
func connectParams(cred *session.Credential, database string) query.ConnectParams {
	return query.ConnectParams{
		Host:     cred.Host,
		User:     cred.User,
		Password: cred.Secret,
		Database: cred.ResolveDatabase(database),
	}
}
