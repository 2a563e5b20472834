package query

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// PageSize is the fixed table-browsing window.
const PageSize = 100

// TableView is one paginated window into a table, recomputed fresh on
// every request.
type TableView struct {
	Table      string
	Database   string
	Page       int
	TotalRows  int64
	TotalPages int
	Columns    []string
	Rows       [][]string
}

// Browser computes paginated windows over a single table.
type Browser struct {
	open Opener
}

// NewBrowser creates a Browser using the real MySQL driver.
func NewBrowser() *Browser {
	return &Browser{open: openMySQL}
}

// NewBrowserWithOpener creates a Browser with a custom opener.
func NewBrowserWithOpener(open Opener) *Browser {
	return &Browser{open: open}
}

// Browse fetches page (1-based, clamped) of the named table. The name must
// be present in the database's current table listing; it is backtick-quoted
// afterwards regardless. A page past the end yields an empty row list with
// the correct totals.
func (b *Browser) Browse(ctx context.Context, params ConnectParams, table string, page int) (*TableView, error) {
	if page < 1 {
		page = 1
	}

	db, err := b.open(params.DSN())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	defer func() { _ = db.Close() }()

	tables, err := currentTables(ctx, db)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	if !slices.Contains(tables, table) {
		return nil, &UnknownTableError{Table: table}
	}

	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdent(table))
	if err := db.QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return nil, &QueryError{Err: err}
	}

	pageSQL := fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d",
		QuoteIdent(table), PageSize, (page-1)*PageSize)
	rows, err := db.QueryContext(ctx, pageSQL)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	window, err := scanRows(rows, cols)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	return &TableView{
		Table:      table,
		Database:   params.Database,
		Page:       page,
		TotalRows:  total,
		TotalPages: totalPages,
		Columns:    cols,
		Rows:       window,
	}, nil
}

// QuoteIdent backtick-quotes an identifier for interpolation.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
