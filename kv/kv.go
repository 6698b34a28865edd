// Package kv provides a persistent key-value mapping layered on a frozen
// object's relational database.
//
// Entries live in a reserved table inside the same db.sqlite file as the
// application's own tables, so they share file-level transactions: writes
// issued through a cursor inside an active bulk-transaction scope are rolled
// back together with everything else when the scope fails.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cryodb/cryo/reldb"
)

// tableName is reserved for this package; application tables must not use it.
const tableName = "cryo_kv"

// ErrNotFound is returned by Get for keys with no stored value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string-keyed mapping backed by the cryo_kv table. Values are
// stored as JSON.
type Store struct {
	db *reldb.Store
}

// Open attaches a key-value store to db, creating the reserved table if it
// does not exist yet.
func Open(ctx context.Context, db *reldb.Store) (*Store, error) {
	_, err := db.Cursor().Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY NOT NULL,
			val BLOB NOT NULL
		)`, tableName))
	if err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	return s.PutCursor(ctx, s.db.Cursor(), key, value)
}

// PutCursor is Put issued through an explicit cursor. Use it inside a
// bulk-transaction scope so the write participates in the scope's rollback.
func (s *Store) PutCursor(ctx context.Context, cur *reldb.Cursor, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	_, err = cur.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, val) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET val = excluded.val`, tableName),
		key, data)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Get loads the value stored under key into out, which must be a pointer.
// Returns ErrNotFound if the key has no value.
func (s *Store) Get(ctx context.Context, key string, out any) error {
	var data []byte
	err := s.db.Cursor().QueryRow(ctx,
		fmt.Sprintf("SELECT val FROM %s WHERE key = ?", tableName), key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode value for %q: %w", key, err)
	}
	return nil
}

// Has reports whether key has a stored value.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.Cursor().QueryRow(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE key = ?", tableName), key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}
	return true, nil
}

// Del removes key. Deleting an absent key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.DelCursor(ctx, s.db.Cursor(), key)
}

// DelCursor is Del issued through an explicit cursor, for use inside
// bulk-transaction scopes.
func (s *Store) DelCursor(ctx context.Context, cur *reldb.Cursor, key string) error {
	if _, err := cur.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE key = ?", tableName), key,
	); err != nil {
		return fmt.Errorf("del %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Cursor().Query(ctx,
		fmt.Sprintf("SELECT key FROM %s ORDER BY key", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// Len returns the number of stored entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.Cursor().QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s", tableName)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
