package query

import "fmt"

// ConnectError reports that the server refused or dropped the connection
// attempt. The driver's message is preserved verbatim.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect error: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError reports that the server rejected or failed a statement.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// UnknownTableError reports a browse request for a table that is not part
// of the current listing for the selected database.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}
