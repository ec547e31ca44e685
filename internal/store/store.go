// Package store persists transactions in a local embedded SQL database. It
// enforces the primary-key uniqueness invariant through ignore-on-conflict
// inserts and answers typed queries built from domain.FilterSpec.
//
// The underlying driver is synchronous and not safe for concurrent use, so
// every operation is dispatched onto a single dedicated worker goroutine
// instead of being called directly from request goroutines.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xmflabs/xmf/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY,
	time TIMESTAMP NOT NULL,
	amount REAL NOT NULL,
	merchant TEXT NOT NULL
);`

type job struct {
	run  func(*sql.DB) (any, error)
	resp chan result
}

type result struct {
	val any
	err error
}

// Store is a mutex-free, single-worker handle onto the embedded database.
// Writes and reads alike are serialized through the worker in FIFO order.
type Store struct {
	db   *sql.DB
	jobs chan job
	quit chan struct{}
}

// Open creates the schema if absent and starts the store's worker. Pass
// ":memory:" for a process-lifetime in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &domain.StoreError{Kind: domain.StoreIO, Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.StoreError{Kind: domain.StoreIO, Err: err}
	}
	// The driver does not support concurrent writers; a single
	// connection both avoids "database is locked" errors and keeps an
	// in-memory database's contents from being split across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &domain.StoreError{Kind: domain.StoreSchema, Err: err}
	}

	// SQLite's LIKE ignores ASCII case by default; make it case-sensitive
	// so the merchant filter agrees with FilterSpec.Match.
	if _, err := db.Exec(`PRAGMA case_sensitive_like = ON`); err != nil {
		db.Close()
		return nil, &domain.StoreError{Kind: domain.StoreSchema, Err: err}
	}

	s := &Store{
		db:   db,
		jobs: make(chan job),
		quit: make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *Store) run() {
	for {
		select {
		case j := <-s.jobs:
			val, err := j.run(s.db)
			j.resp <- result{val, err}
		case <-s.quit:
			return
		}
	}
}

func (s *Store) dispatch(ctx context.Context, fn func(*sql.DB) (any, error)) (any, error) {
	resp := make(chan result, 1)
	select {
	case s.jobs <- job{run: fn, resp: resp}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.quit:
		return nil, fmt.Errorf("store closed")
	}

	select {
	case r := <-resp:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the worker and closes the underlying database handle.
func (s *Store) Close() error {
	close(s.quit)
	return s.db.Close()
}

// InsertMany inserts rows using ignore-on-conflict on id and returns the
// count actually inserted. Re-inserting an overlapping page never
// duplicates rows.
func (s *Store) InsertMany(ctx context.Context, rows []domain.Transaction) (int, error) {
	v, err := s.dispatch(ctx, func(db *sql.DB) (any, error) {
		tx, err := db.Begin()
		if err != nil {
			return 0, &domain.StoreError{Kind: domain.StoreIO, Err: err}
		}
		defer tx.Rollback() //nolint:errcheck

		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO transactions (id, time, amount, merchant) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		defer stmt.Close()

		inserted := 0
		for _, row := range rows {
			res, err := stmt.Exec(row.ID, row.Time.Format(time.RFC3339), row.Amount, row.Merchant)
			if err != nil {
				return 0, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
			}
			inserted += int(n)
		}

		if err := tx.Commit(); err != nil {
			return 0, &domain.StoreError{Kind: domain.StoreIO, Err: err}
		}
		return inserted, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Count returns the total number of stored transactions.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	v, err := s.dispatch(ctx, func(db *sql.DB) (any, error) {
		var n uint64
		if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
			return uint64(0), &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// OldestTime returns the earliest stored time, or nil if the store is empty.
func (s *Store) OldestTime(ctx context.Context) (*time.Time, error) {
	return s.boundaryTime(ctx, "MIN(time)")
}

// NewestTime returns the most recent stored time, or nil if the store is
// empty. The fetch coordinator uses this to decide where to stop walking
// back.
func (s *Store) NewestTime(ctx context.Context) (*time.Time, error) {
	return s.boundaryTime(ctx, "MAX(time)")
}

func (s *Store) boundaryTime(ctx context.Context, agg string) (*time.Time, error) {
	v, err := s.dispatch(ctx, func(db *sql.DB) (any, error) {
		var raw sql.NullString
		query := fmt.Sprintf(`SELECT %s FROM transactions`, agg) //nolint:gosec // agg is a fixed literal, never user input
		if err := db.QueryRow(query).Scan(&raw); err != nil {
			return (*time.Time)(nil), &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		if !raw.Valid {
			return (*time.Time)(nil), nil
		}
		t, err := time.Parse(time.RFC3339, raw.String)
		if err != nil {
			return (*time.Time)(nil), &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*time.Time), nil
}

// Query translates filter into a single parameterised SQL statement and
// returns matching rows ordered by time descending.
func (s *Store) Query(ctx context.Context, filter domain.FilterSpec) ([]domain.Transaction, error) {
	v, err := s.dispatch(ctx, func(db *sql.DB) (any, error) {
		where, args := filter.Render()
		query := `SELECT id, time, amount, merchant FROM transactions`
		if where != "" {
			query += " WHERE " + where
		}
		query += " ORDER BY time DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		defer rows.Close()

		out := make([]domain.Transaction, 0)
		for rows.Next() {
			var t domain.Transaction
			var rawTime string
			if err := rows.Scan(&t.ID, &rawTime, &t.Amount, &t.Merchant); err != nil {
				return nil, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
			}
			parsed, err := time.Parse(time.RFC3339, rawTime)
			if err != nil {
				return nil, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
			}
			t.Time = parsed
			out = append(out, t)
		}
		if err := rows.Err(); err != nil {
			return nil, &domain.StoreError{Kind: domain.StoreQuery, Err: err}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Transaction), nil
}

// Clear drops all rows.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.dispatch(ctx, func(db *sql.DB) (any, error) {
		if _, err := db.Exec(`DELETE FROM transactions`); err != nil {
			return nil, &domain.StoreError{Kind: domain.StoreIO, Err: err}
		}
		return nil, nil
	})
	return err
}
