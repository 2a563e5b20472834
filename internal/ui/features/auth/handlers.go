// Package auth provides handlers for credential login, logout, and
// database selection.
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// Handlers provides HTTP handlers for the auth feature.
type Handlers struct {
	sessions *session.Manager
	lister   *query.Lister
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessions *session.Manager, lister *query.Lister, logger *slog.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		lister:   lister,
		logger:   logger,
	}
}

// Login stores the submitted credential in the session and sends the
// browser back to the workspace. The password is optional; everything
// else is not.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	cred := session.Credential{
		Host:     r.PostFormValue("host"),
		User:     r.PostFormValue("user"),
		Secret:   r.PostFormValue("password"),
		Database: r.PostFormValue("database"),
		Label:    r.PostFormValue("label"),
	}

	if err := h.sessions.Login(w, r, cred); err != nil {
		if errors.Is(err, session.ErrMissingFields) {
			_ = h.sessions.Flash(w, r, "Please provide host, user and a label for these credentials.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.logger.Error("login failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("credential stored", "host", cred.Host, "user", cred.User, "label", cred.Label)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout discards the session and returns to the login form.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("logout failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type setDatabaseResponse struct {
	OK               bool     `json:"ok"`
	SelectedDatabase string   `json:"selectedDatabase"`
	Tables           []string `json:"tables"`
	Error            string   `json:"error,omitempty"`
}

// SetDatabase records the sidebar database choice and answers with the
// tables of the newly selected database so the sidebar can refresh in
// place.
func (h *Handlers) SetDatabase(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	cred := h.sessions.Credential(r)
	if cred == nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(setDatabaseResponse{Error: "not logged in"})
		return
	}

	database := r.PostFormValue("database")
	if err := h.sessions.SetSelectedDatabase(w, r, database); err != nil {
		h.logger.Error("database selection failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(setDatabaseResponse{Error: err.Error()})
		return
	}

	resp := setDatabaseResponse{OK: true, SelectedDatabase: database}
	if database != "" {
		params := query.ConnectParams{
			Host:     cred.Host,
			User:     cred.User,
			Password: cred.Secret,
			Database: database,
		}
		tables, err := h.lister.Tables(r.Context(), params)
		if err != nil {
			// Selection is stored either way; the sidebar just stays empty.
			h.logger.Warn("table listing failed", "database", database, "error", err)
		}
		resp.Tables = tables
	}

	_ = json.NewEncoder(w).Encode(resp)
}
