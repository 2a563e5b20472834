package query

import (
	"context"
	"database/sql"
)

// Lister fetches sidebar metadata: the databases on the server and the
// tables inside the selected database. Listing failures are informational
// for callers; they must not block anything else.
type Lister struct {
	open Opener
}

// NewLister creates a Lister using the real MySQL driver.
func NewLister() *Lister {
	return &Lister{open: openMySQL}
}

// NewListerWithOpener creates a Lister with a custom opener.
func NewListerWithOpener(open Opener) *Lister {
	return &Lister{open: open}
}

// Databases lists the databases visible to the credential. It connects
// without selecting a database so the listing works before one is chosen.
func (l *Lister) Databases(ctx context.Context, params ConnectParams) ([]string, error) {
	params.Database = ""
	db, err := l.open(params.DSN())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Err: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Tables lists the tables of params.Database.
func (l *Lister) Tables(ctx context.Context, params ConnectParams) ([]string, error) {
	db, err := l.open(params.DSN())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	defer func() { _ = db.Close() }()

	tables, err := currentTables(ctx, db)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return tables, nil
}

// currentTables lists the tables of the connection's selected database.
func currentTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const q = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() ORDER BY table_name`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
