package workspace

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querypad/internal/catalog"
	"github.com/leapstack-labs/querypad/internal/query"
	"github.com/leapstack-labs/querypad/internal/session"
	"github.com/leapstack-labs/querypad/internal/testutil"
	"github.com/leapstack-labs/querypad/internal/ui/features"
)

type fixture struct {
	sessions *session.Manager
	catalog  *catalog.Store
	handlers *Handlers
	cookies  []*http.Cookie
}

// newFixture wires handlers whose database components use the given
// openers. Components a test does not touch get a failing opener.
func newFixture(t *testing.T, executor, browser, lister query.Opener) *fixture {
	t.Helper()

	if executor == nil {
		executor = features.FailingOpener(assert.AnError)
	}
	if browser == nil {
		browser = features.FailingOpener(assert.AnError)
	}
	if lister == nil {
		lister = features.FailingOpener(assert.AnError)
	}

	sessions := features.NewTestSessionManager()
	store := features.NewTestCatalog(t)
	h := NewHandlers(
		sessions,
		store,
		query.NewExecutorWithOpener(executor),
		query.NewBrowserWithOpener(browser),
		query.NewListerWithOpener(lister),
		testutil.NewTestLogger(t),
	)
	return &fixture{
		sessions: sessions,
		catalog:  store,
		handlers: h,
		cookies:  features.Authenticate(t, sessions, features.TestCredential()),
	}
}

func TestIndex(t *testing.T) {
	t.Run("login page without credential", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/login"`)
	})

	t.Run("workspace with degraded sidebar", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/", f.cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "test")
		assert.Contains(t, body, "Could not list databases:")
		assert.Contains(t, body, "SELECT 1;")
	})

	t.Run("table view", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` LIMIT 100 OFFSET 0")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice"))
		mock.ExpectClose()

		f := newFixture(t, nil, features.SingleOpener(t, db), nil)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/?view=table&table=users", f.cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<h1>users</h1>")
		assert.Contains(t, body, "alice")
		assert.Contains(t, body, "page 1 of 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table view overwrites row impact with the page size", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` LIMIT 100 OFFSET 0")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "alice").
				AddRow(2, "bob"))
		mock.ExpectClose()

		f := newFixture(t, nil, features.SingleOpener(t, db), nil)

		seed := httptest.NewRecorder()
		require.NoError(t, f.sessions.SetRowImpact(seed, features.GetRequest("/", f.cookies), 9))
		cookies := features.LatestCookies(f.cookies, seed)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/?view=table&table=users", cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Session row impact: 2")
		assert.NoError(t, mock.ExpectationsWereMet())

		next := features.GetRequest("/", features.LatestCookies(cookies, rec))
		assert.Equal(t, int64(2), f.sessions.RowImpact(next))
	})

	t.Run("unknown table renders an error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
		mock.ExpectClose()

		f := newFixture(t, nil, features.SingleOpener(t, db), nil)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/?view=table&table=missing", f.cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load pulls a saved query into the editor", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		q, err := f.catalog.Upsert("", "report", "SELECT 42;")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/?load="+q.ID, f.cookies))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
		assert.Equal(t, "SELECT 42;", f.sessions.CurrentSQL(next))
		assert.Equal(t, q.ID, f.sessions.Editing(next))
	})

	t.Run("load with unknown id flashes a message", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Index(rec, features.GetRequest("/?load=nope", f.cookies))

		assert.Equal(t, http.StatusSeeOther, rec.Code)

		next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
		msgs := f.sessions.Flashes(httptest.NewRecorder(), next)
		assert.Contains(t, msgs, "Saved query not found.")
	})
}

func TestRun(t *testing.T) {
	t.Run("requires credential", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Run(rec, features.FormRequest("/run", url.Values{"sql": {"SELECT 1;"}}, nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)

		next := features.GetRequest("/", features.LatestCookies(nil, rec))
		msgs := f.sessions.Flashes(httptest.NewRecorder(), next)
		assert.Contains(t, msgs, GuardMessage)
	})

	t.Run("renders outcomes and replaces row impact", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectQuery("UPDATE users SET active = 1").
			WillReturnRows(sqlmock.NewRows([]string{}))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT ROW_COUNT()")).
			WillReturnRows(sqlmock.NewRows([]string{"ROW_COUNT()"}).AddRow(2))
		mock.ExpectQuery("SELECT name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice"))
		mock.ExpectClose()

		f := newFixture(t, features.SingleOpener(t, db), nil, nil)

		// A leftover counter from an earlier script must not leak in.
		seed := httptest.NewRecorder()
		require.NoError(t, f.sessions.SetRowImpact(seed, features.GetRequest("/", f.cookies), 5))
		cookies := features.LatestCookies(f.cookies, seed)

		rec := httptest.NewRecorder()
		f.handlers.Run(rec, features.FormRequest("/run", url.Values{
			"sql": {"UPDATE users SET active = 1; SELECT name FROM users;"},
		}, cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "2 row(s) affected")
		assert.Contains(t, body, "alice")
		assert.Contains(t, body, "Session row impact: 3")
		assert.NoError(t, mock.ExpectationsWereMet())

		next := features.GetRequest("/", features.LatestCookies(cookies, rec))
		assert.Equal(t, int64(3), f.sessions.RowImpact(next))
	})

	t.Run("selected_db form value overrides the stored database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectQuery("SELECT 1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectClose()

		var dsn string
		opener := func(d string) (*sql.DB, error) {
			dsn = d
			return db, nil
		}

		f := newFixture(t, opener, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Run(rec, features.FormRequest("/run", url.Values{
			"sql":         {"SELECT 1;"},
			"selected_db": {"override_db"},
		}, f.cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, dsn, "/override_db")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("script failure shows the error and keeps the buffer", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Run(rec, features.FormRequest("/run", url.Values{"sql": {"SELECT nope;"}}, f.cookies))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "connect error")
		assert.Contains(t, body, "SELECT nope;")
	})
}

func TestLoad(t *testing.T) {
	t.Run("requires credential", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Load(rec, features.FormRequest("/load", url.Values{"id": {"whatever"}}, nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)

		next := features.GetRequest("/", features.LatestCookies(nil, rec))
		msgs := f.sessions.Flashes(httptest.NewRecorder(), next)
		assert.Contains(t, msgs, GuardMessage)
	})

	t.Run("pulls a saved query into the editor", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		q, err := f.catalog.Upsert("", "report", "SELECT 42;")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		f.handlers.Load(rec, features.FormRequest("/load", url.Values{"id": {q.ID}}, f.cookies))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
		assert.Equal(t, "SELECT 42;", f.sessions.CurrentSQL(next))
		assert.Equal(t, q.ID, f.sessions.Editing(next))
	})
}

func TestSave(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Save(rec, features.FormRequest("/save", url.Values{"sql": {"SELECT 1;"}}, f.cookies))

		assert.Equal(t, http.StatusSeeOther, rec.Code)

		next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
		msgs := f.sessions.Flashes(httptest.NewRecorder(), next)
		assert.Contains(t, msgs, "Please provide a name to save the query.")

		list, err := f.catalog.List()
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("creates and then overwrites an entry", func(t *testing.T) {
		f := newFixture(t, nil, nil, nil)

		rec := httptest.NewRecorder()
		f.handlers.Save(rec, features.FormRequest("/save", url.Values{
			"name": {"report"},
			"sql":  {"SELECT 1;"},
		}, f.cookies))
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		list, err := f.catalog.List()
		require.NoError(t, err)
		require.Len(t, list, 1)
		id := list[0].ID

		next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
		assert.Equal(t, id, f.sessions.Editing(next))

		rec = httptest.NewRecorder()
		f.handlers.Save(rec, features.FormRequest("/save", url.Values{
			"id":   {id},
			"name": {"report v2"},
			"sql":  {"SELECT 2;"},
		}, f.cookies))

		list, err = f.catalog.List()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, id, list[0].ID)
		assert.Equal(t, "report v2", list[0].Name)
		assert.Equal(t, "SELECT 2;", list[0].SQL)
		assert.NotNil(t, list[0].UpdatedAt)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil, nil, nil)

	q, err := f.catalog.Upsert("", "doomed", "SELECT 1;")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handlers.Delete(rec, features.FormRequest("/delete", url.Values{"id": {q.ID}}, f.cookies))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	list, err := f.catalog.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	next := features.GetRequest("/", features.LatestCookies(f.cookies, rec))
	msgs := f.sessions.Flashes(httptest.NewRecorder(), next)
	assert.Contains(t, msgs, "Deleted query 'doomed'.")

	// Unknown id just redirects.
	rec = httptest.NewRecorder()
	f.handlers.Delete(rec, features.FormRequest("/delete", url.Values{"id": {"nope"}}, f.cookies))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
