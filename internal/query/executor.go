package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Executor runs one SQL script per invocation against a fresh connection.
//
// The script is executed statement by statement on a single dedicated
// session so that ROW_COUNT() reflects the statement that just ran. A
// server error aborts the remaining statements and the outcomes collected
// so far are discarded: the caller gets either the full sequence or an
// error, never a partial response.
type Executor struct {
	open Opener
}

// NewExecutor creates an Executor using the real MySQL driver.
func NewExecutor() *Executor {
	return &Executor{open: openMySQL}
}

// NewExecutorWithOpener creates an Executor with a custom opener.
func NewExecutorWithOpener(open Opener) *Executor {
	return &Executor{open: open}
}

// Execute runs the script and returns one outcome per statement in server
// order. Connection failures surface as *ConnectError, statement failures
// as *QueryError. The connection is closed before returning, success or not.
func (e *Executor) Execute(ctx context.Context, params ConnectParams, script string) ([]StatementOutcome, error) {
	db, err := e.open(params.DSN())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	defer func() { _ = conn.Close() }()

	var outcomes []StatementOutcome
	for _, stmt := range SplitScript(script) {
		outcome, err := runStatement(ctx, conn, stmt)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func runStatement(ctx context.Context, conn *sql.Conn, stmt string) (StatementOutcome, error) {
	start := time.Now()

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return StatementOutcome{}, &QueryError{Err: err}
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return StatementOutcome{}, &QueryError{Err: err}
	}

	if len(cols) == 0 {
		// DDL/DML: no result set. ROW_COUNT() runs on the same pinned
		// session, so it reports the statement that just executed.
		_ = rows.Close()
		var affected int64
		if err := conn.QueryRowContext(ctx, "SELECT ROW_COUNT()").Scan(&affected); err != nil {
			return StatementOutcome{}, &QueryError{Err: err}
		}
		return StatementOutcome{
			AffectedRows: affected,
			ElapsedMS:    time.Since(start).Milliseconds(),
		}, nil
	}

	defer func() { _ = rows.Close() }()

	all, err := scanRows(rows, cols)
	if err != nil {
		return StatementOutcome{}, &QueryError{Err: err}
	}

	return StatementOutcome{
		HasRows:   true,
		Columns:   cols,
		Rows:      all,
		RowCount:  int64(len(all)),
		ElapsedMS: time.Since(start).Milliseconds(),
	}, nil
}

// scanRows materializes a result set, preserving server row order.
func scanRows(rows *sql.Rows, cols []string) ([][]string, error) {
	var all [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		all = append(all, row)
	}
	return all, rows.Err()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
