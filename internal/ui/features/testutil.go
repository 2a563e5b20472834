// Package features provides shared test utilities for UI feature tests.
package features

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
)

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// NewTestSessionManager creates a session manager backed by a cookie store.
func NewTestSessionManager() *session.Manager {
	return session.NewManager(NewTestSessionStore())
}

// NewTestCatalog creates a catalog store backed by a file in a temp dir.
func NewTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	return catalog.NewStore(filepath.Join(t.TempDir(), "saved_queries.json"))
}

// TestCredential is a complete credential for handler tests.
func TestCredential() session.Credential {
	return session.Credential{
		Host:     "localhost:3306",
		User:     "root",
		Secret:   "secret",
		Database: "app",
		Label:    "test",
	}
}

// Authenticate logs the credential into the manager and returns the
// session cookies a browser would carry on its next request.
func Authenticate(t *testing.T, m *session.Manager, cred session.Credential) []*http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, m.Login(rec, req, cred))
	return rec.Result().Cookies()
}

// GetRequest builds a GET request carrying the given session cookies.
func GetRequest(target string, cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// FormRequest builds a POST request with an urlencoded form body and the
// given session cookies.
func FormRequest(target string, form url.Values, cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// SingleOpener hands out the given database once; later opens fail the
// test, catching handlers that connect more often than they should.
func SingleOpener(t *testing.T, db *sql.DB) query.Opener {
	t.Helper()

	used := false
	return func(string) (*sql.DB, error) {
		require.False(t, used, "opener used more than once")
		used = true
		return db, nil
	}
}

// FailingOpener always fails, simulating an unreachable server.
func FailingOpener(err error) query.Opener {
	return func(string) (*sql.DB, error) {
		return nil, err
	}
}

// LatestCookies keeps the last cookie per name from a response, the way a
// browser would, and merges them over the given base cookies.
func LatestCookies(base []*http.Cookie, rec *httptest.ResponseRecorder) []*http.Cookie {
	latest := map[string]*http.Cookie{}
	for _, c := range base {
		latest[c.Name] = c
	}
	for _, c := range rec.Result().Cookies() {
		latest[c.Name] = c
	}
	merged := make([]*http.Cookie, 0, len(latest))
	for _, c := range latest {
		merged = append(merged, c)
	}
	return merged
}
