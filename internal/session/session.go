// Package session keeps per-browser state in a cookie session: the
// database credential, the SQL buffer, the running row-impact counter, and
// one-shot flash messages. Credentials live only here; nothing is written
// to disk.
package session

import (
	"encoding/gob"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

// Name is the cookie session name.
const Name = "querypad"

// ExpiryWindow is how long a stored credential stays usable after login.
const ExpiryWindow = 8 * time.Hour

const (
	keyCredential = "credential"
	keyRowImpact  = "row_impact"
	keyEditingID  = "editing_id"
	keyCurrentSQL = "current_sql"
)

// ErrMissingFields is returned by Login when host, user, or label is empty.
var ErrMissingFields = errors.New("host, user and label are required")

func init() {
	gob.Register(&Credential{})
}

// Credential is a stored database credential plus the database selection
// made after login. Expiry is computed from CreatedAt on every read; there
// is no background cleanup.
type Credential struct {
	Host      string
	User      string
	Secret    string
	Database  string
	Label     string
	Selected  string
	CreatedAt time.Time
}

// Valid reports whether the credential is complete and younger than the
// expiry window.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.Host == "" || c.User == "" {
		return false
	}
	return now.Sub(c.CreatedAt) <= ExpiryWindow
}

// ResolveDatabase picks the database for the next operation: an explicit
// choice wins, then the sidebar selection, then the database entered at
// login.
func (c *Credential) ResolveDatabase(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.Selected != "" {
		return c.Selected
	}
	return c.Database
}

// Manager wraps a gorilla session store with typed accessors.
type Manager struct {
	store sessions.Store
	now   func() time.Time
}

// NewManager creates a Manager on top of the given store.
func NewManager(store sessions.Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

func (m *Manager) session(r *http.Request) *sessions.Session {
	// Get never fails fatally for cookie stores; a bad cookie yields a
	// fresh session, which is the behavior we want on tampering.
	s, _ := m.store.Get(r, Name)
	return s
}

// Login validates and stores a credential, replacing any previous one and
// clearing state derived from it. The password may be empty; host, user,
// and label may not.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, cred Credential) error {
	cred.Host = strings.TrimSpace(cred.Host)
	cred.User = strings.TrimSpace(cred.User)
	cred.Database = strings.TrimSpace(cred.Database)
	cred.Label = strings.TrimSpace(cred.Label)
	if cred.Host == "" || cred.User == "" || cred.Label == "" {
		return ErrMissingFields
	}
	cred.Selected = ""
	cred.CreatedAt = m.now()

	s := m.session(r)
	s.Values = map[any]any{keyCredential: &cred}
	return s.Save(r, w)
}

// Logout discards the whole session. Logging out while logged out is fine.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Values = map[any]any{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Credential returns the stored credential, or nil when absent or expired.
// Expired credentials are treated exactly like missing ones.
func (m *Manager) Credential(r *http.Request) *Credential {
	cred, _ := m.session(r).Values[keyCredential].(*Credential)
	if !cred.Valid(m.now()) {
		return nil
	}
	return cred
}

// SetSelectedDatabase records the sidebar database choice on the stored
// credential so later requests connect to it by default.
func (m *Manager) SetSelectedDatabase(w http.ResponseWriter, r *http.Request, database string) error {
	s := m.session(r)
	cred, _ := s.Values[keyCredential].(*Credential)
	if !cred.Valid(m.now()) {
		return errors.New("no valid credential in session")
	}
	cred.Selected = database
	s.Values[keyCredential] = cred
	return s.Save(r, w)
}

// RowImpact returns the session's cumulative row-impact counter.
func (m *Manager) RowImpact(r *http.Request) int64 {
	impact, _ := m.session(r).Values[keyRowImpact].(int64)
	return impact
}

// SetRowImpact stores the cumulative row-impact counter.
func (m *Manager) SetRowImpact(w http.ResponseWriter, r *http.Request, impact int64) error {
	s := m.session(r)
	s.Values[keyRowImpact] = impact
	return s.Save(r, w)
}

// Editing returns the id of the saved query currently loaded into the
// editor, or empty when composing from scratch.
func (m *Manager) Editing(r *http.Request) string {
	id, _ := m.session(r).Values[keyEditingID].(string)
	return id
}

// SetEditing records which saved query the editor is working on.
func (m *Manager) SetEditing(w http.ResponseWriter, r *http.Request, id string) error {
	s := m.session(r)
	s.Values[keyEditingID] = id
	return s.Save(r, w)
}

// ClearEditing detaches the editor from any saved query.
func (m *Manager) ClearEditing(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	delete(s.Values, keyEditingID)
	return s.Save(r, w)
}

// CurrentSQL returns the editor buffer as last submitted, so it survives
// redirects.
func (m *Manager) CurrentSQL(r *http.Request) string {
	sqlText, _ := m.session(r).Values[keyCurrentSQL].(string)
	return sqlText
}

// SetCurrentSQL stores the editor buffer.
func (m *Manager) SetCurrentSQL(w http.ResponseWriter, r *http.Request, sqlText string) error {
	s := m.session(r)
	s.Values[keyCurrentSQL] = sqlText
	return s.Save(r, w)
}

// Flash queues a one-shot message for the next page render.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, msg string) error {
	s := m.session(r)
	s.AddFlash(msg)
	return s.Save(r, w)
}

// Flashes drains the queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	s := m.session(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
