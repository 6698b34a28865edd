package reldb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database file kept inside every frozen object's directory.
const FileName = "db.sqlite"

// Store wraps the single SQLite connection bound to one object directory.
// The containing directory must already exist; creating it is the caller's
// responsibility.
type Store struct {
	db   *sql.DB
	path string

	// spSeq numbers savepoints so sequentially nested scopes never collide.
	spSeq atomic.Uint64
}

// Open opens or creates the database file at dir/db.sqlite.
// Returns an *OpenError on I/O failure or a corrupt database file.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}

	// SQLite supports one writer at a time; a single pooled connection also
	// keeps session state (pragmas, savepoints) on one handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// A corrupt file only surfaces once the header is actually read, so force
	// a read before handing the store out.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	var ignored int
	if err := db.QueryRow("PRAGMA schema_version").Scan(&ignored); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the filesystem path of the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. Safe to call on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Cursor returns a handle for issuing statements against the open
// connection. Statements run with the engine's default transactional
// behavior; use BulkTransaction for atomic batches.
func (s *Store) Cursor() *Cursor {
	return &Cursor{db: s.db}
}

// Cursor issues statements against a Store's connection. Cursors obtained
// inside a bulk-transaction scope share the scope's savepoint; writes made
// through them are undone together on rollback.
type Cursor struct {
	db *sql.DB
}

// Exec executes a statement that returns no rows.
func (c *Cursor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return res, nil
}

// Query executes a statement and returns its rows.
// Callers are responsible for closing the returned rows.
func (c *Cursor) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return rows, nil
}

// QueryRow executes a statement expected to return at most one row.
func (c *Cursor) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// BulkTransaction runs fn inside a savepoint-guarded batch.
//
// On entry the scope relaxes durability (synchronous=OFF, in-memory journal)
// and opens a named savepoint. If fn returns nil the savepoint is released,
// committing the batch into any enclosing transaction or the database
// itself. If fn returns an error, or panics, every write issued through the
// cursor is rolled back to the savepoint before it is released; the original
// error is returned wrapped in a *TxError (a panic is re-raised after
// rollback).
//
// A crash during the scope may lose the whole batch, but never leaves a
// partial batch visible afterward. Scopes may nest sequentially on the same
// store; concurrent scopes on one store are not supported. All writes that
// must participate in the scope have to go through the yielded cursor (or
// any cursor of the same store) within fn.
func (s *Store) BulkTransaction(ctx context.Context, fn func(*Cursor) error) error {
	cur := s.Cursor()

	for _, pragma := range []string{
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_mode = MEMORY",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return &QueryError{Query: pragma, Err: err}
		}
	}

	name := fmt.Sprintf("cryo_bulk_%d", s.spSeq.Add(1))
	if _, err := s.db.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return &QueryError{Query: "SAVEPOINT " + name, Err: err}
	}

	fnErr := s.runScope(ctx, name, cur, fn)
	if fnErr != nil {
		// Rollback already happened inside runScope; just surface the cause.
		return &TxError{Savepoint: name, Err: fnErr}
	}

	if _, err := s.db.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return &TxError{Savepoint: name, Err: err}
	}
	return nil
}

// runScope executes fn and performs rollback-then-release on failure,
// including the panic path. The savepoint is released on every exit.
func (s *Store) runScope(ctx context.Context, name string, cur *Cursor, fn func(*Cursor) error) (err error) {
	done := false
	defer func() {
		if done {
			return
		}
		// fn panicked: undo the batch, release the savepoint, re-panic.
		s.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
		s.db.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	}()

	err = fn(cur)
	done = true

	if err != nil {
		if _, rbErr := s.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		s.db.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	}
	return err
}

// Table is an ordered query result: column names in the engine-reported
// order, and rows of values in the same order.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Query executes a read statement and returns the full result set.
// Returns a *QueryError, carrying the engine's message, on malformed SQL or
// any engine-reported failure.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	t := &Table{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return t, nil
}
