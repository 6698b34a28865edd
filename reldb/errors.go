package reldb

import (
	"errors"
	"fmt"
)

// OpenError reports a database file that could not be opened, either because
// of an I/O failure or because the file is not a usable SQLite database.
type OpenError struct {
	Path string // filesystem path of the database file
	Err  error  // engine-reported cause
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open database %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// QueryError reports SQL rejected by the engine. The engine's own message is
// always preserved in Err.
type QueryError struct {
	Query string // the offending statement
	Err   error  // engine-reported cause
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TxError reports a failed bulk-transaction scope. By the time a TxError is
// returned, the scope's savepoint has already been rolled back and released;
// Err carries the original failure unchanged so callers can inspect it with
// errors.Is and errors.As.
type TxError struct {
	Savepoint string // savepoint name of the failed scope
	Err       error  // original failure raised inside the scope
}

func (e *TxError) Error() string {
	return fmt.Sprintf("bulk transaction %s rolled back: %v", e.Savepoint, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// IsOpenError reports whether err is or wraps an *OpenError.
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

// IsQueryError reports whether err is or wraps a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsTxError reports whether err is or wraps a *TxError.
func IsTxError(err error) bool {
	var te *TxError
	return errors.As(err, &te)
}
