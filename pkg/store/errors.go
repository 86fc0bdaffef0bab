package store

import "fmt"

// WriteError reports a failed table create, replace or append.
type WriteError struct {
	Table string
	Mode  Mode
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write table %s (%s): %v", e.Table, e.Mode, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// QueryError reports a failed query execution.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("execute query: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
