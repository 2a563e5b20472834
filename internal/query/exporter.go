package query

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"
)

// Separators accepted for CSV export. Anything else falls back to comma.
const (
	SeparatorComma     = ","
	SeparatorSemicolon = ";"
)

// NormalizeSeparator maps a submitted separator onto the allowed set.
func NormalizeSeparator(s string) rune {
	if s == SeparatorSemicolon {
		return ';'
	}
	return ','
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with _.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ExportFilename derives the attachment name {base}_{timestamp}.csv and
// sanitizes the result. An empty base falls back to "query".
func ExportFilename(base string, now time.Time) string {
	if base == "" {
		base = "query"
	}
	return SanitizeFilename(fmt.Sprintf("%s_%s.csv", base, now.Format("2006-01-02_15:04:05")))
}

// Exporter re-executes a script and streams its first result as CSV.
type Exporter struct {
	open Opener
}

// NewExporter creates an Exporter using the real MySQL driver.
func NewExporter() *Exporter {
	return &Exporter{open: openMySQL}
}

// NewExporterWithOpener creates an Exporter with a custom opener.
func NewExporterWithOpener(open Opener) *Exporter {
	return &Exporter{open: open}
}

// CSVStream is an in-flight export. The first statement has already been
// submitted, so callers can send response headers before streaming rows.
type CSVStream struct {
	sep      rune
	cols     []string
	rows     *sql.Rows
	affected int64
	rest     []string
	conn     *sql.Conn
	db       *sql.DB
}

// Start opens a fresh connection and submits the script's first statement.
// Connection and first-statement errors surface here, before any byte of
// the response body exists.
func (e *Exporter) Start(ctx context.Context, params ConnectParams, script, separator string) (*CSVStream, error) {
	stmts := SplitScript(script)
	if len(stmts) == 0 {
		return nil, &QueryError{Err: errors.New("empty script")}
	}

	db, err := e.open(params.DSN())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &ConnectError{Err: err}
	}

	stream := &CSVStream{
		sep:  NormalizeSeparator(separator),
		rest: stmts[1:],
		conn: conn,
		db:   db,
	}

	rows, err := conn.QueryContext(ctx, stmts[0])
	if err != nil {
		_ = stream.Close()
		return nil, &QueryError{Err: err}
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = stream.Close()
		return nil, &QueryError{Err: err}
	}

	if len(cols) == 0 {
		// No result set: export becomes a two-line info CSV.
		_ = rows.Close()
		if err := conn.QueryRowContext(ctx, "SELECT ROW_COUNT()").Scan(&stream.affected); err != nil {
			_ = stream.Close()
			return nil, &QueryError{Err: err}
		}
		return stream, nil
	}

	stream.cols = cols
	stream.rows = rows
	return stream, nil
}

// WriteTo streams the export: a header row of field names followed by one
// CSV record per row, flushed as each row is fetched so callers never
// buffer the full result. A no-row first statement emits the literal
// "info" label and the affected-row count instead. Remaining statements
// are drained afterwards for their side effects; their errors are dropped
// because the payload is already on the wire. The connection is released
// unconditionally.
func (s *CSVStream) WriteTo(ctx context.Context, w io.Writer) error {
	defer func() { _ = s.Close() }()

	cw := csv.NewWriter(w)
	cw.Comma = s.sep

	if s.rows == nil {
		if err := cw.Write([]string{"info"}); err != nil {
			return err
		}
		if err := cw.Write([]string{strconv.FormatInt(s.affected, 10)}); err != nil {
			return err
		}
		cw.Flush()
		s.drain(ctx)
		return cw.Error()
	}

	defer func() { _ = s.rows.Close() }()

	if err := cw.Write(s.cols); err != nil {
		return err
	}
	cw.Flush()

	values := make([]any, len(s.cols))
	ptrs := make([]any, len(s.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	record := make([]string, len(s.cols))

	for s.rows.Next() {
		if err := s.rows.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range values {
			record[i] = csvValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}
	if err := s.rows.Err(); err != nil {
		return err
	}

	s.drain(ctx)
	return cw.Error()
}

// drain executes the remaining statements of the script so their side
// effects still happen.
func (s *CSVStream) drain(ctx context.Context) {
	for _, stmt := range s.rest {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return
		}
	}
}

// Close releases the stream's connection. Safe to call more than once.
func (s *CSVStream) Close() error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// csvValue renders a scanned value for CSV output. NULL becomes an empty
// field; csv.Writer handles the quoting.
func csvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
