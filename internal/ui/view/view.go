// Package view renders the server-side HTML pages. Templates are embedded
// so the binary stays self-contained.
package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
)

//go:embed templates/*.tmpl
var files embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(n int) int { return n + 1 },
	"dec": func(n int) int { return n - 1 },
}).ParseFS(files, "templates/*.tmpl"))

// DefaultSQL seeds the editor for a fresh session.
const DefaultSQL = "SELECT 1;"

// LoginData feeds the login page.
type LoginData struct {
	Messages []string
	Error    string
}

// WorkspaceData feeds the main workspace page: sidebar, editor, and either
// statement outcomes or a table page.
type WorkspaceData struct {
	Label            string
	Databases        []string
	SelectedDatabase string
	Tables           []string
	Saved            []catalog.SavedQuery
	EditingID        string
	EditingName      string
	SQL              string
	Outcomes         []query.StatementOutcome
	TableView        *query.TableView
	RowImpact        int64
	Messages         []string
	Error            string
}

// Login renders the credential form.
func Login(w io.Writer, data LoginData) error {
	return pages.ExecuteTemplate(w, "login.tmpl", data)
}

// Workspace renders the editor page.
func Workspace(w io.Writer, data WorkspaceData) error {
	return pages.ExecuteTemplate(w, "workspace.tmpl", data)
}
