// Package journal persists fuzz run results in a SQLite database so a
// long-running harness leaves an auditable trail of what it covered and
// what it found.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite results database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("journal: db path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.applyPragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applyPragmas(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous=NORMAL"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return err
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS iterations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	decoder TEXT NOT NULL,
	seed INTEGER NOT NULL,
	iter INTEGER NOT NULL,
	input_len INTEGER NOT NULL,
	input_hash TEXT NOT NULL,
	consumed INTEGER NOT NULL,
	exhausted INTEGER NOT NULL,
	dur_ms INTEGER NOT NULL
)`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS findings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	decoder TEXT NOT NULL,
	seed INTEGER NOT NULL,
	iter INTEGER NOT NULL,
	input_len INTEGER NOT NULL,
	input_hash TEXT NOT NULL,
	detail TEXT NOT NULL
)`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_iterations_decoder ON iterations(decoder)`); err != nil {
		return err
	}
	return tx.Commit()
}

// Iteration is one completed fuzz iteration.
type Iteration struct {
	Decoder   string
	Seed      int64
	Iter      int
	InputLen  int
	InputHash string
	Consumed  int
	Exhausted bool
	Duration  time.Duration
}

// RecordIteration appends an iteration row.
func (s *Store) RecordIteration(it Iteration) error {
	exhausted := 0
	if it.Exhausted {
		exhausted = 1
	}
	_, err := s.db.Exec(`
INSERT INTO iterations (started_at, decoder, seed, iter, input_len, input_hash, consumed, exhausted, dur_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		it.Decoder, it.Seed, it.Iter, it.InputLen, it.InputHash,
		it.Consumed, exhausted, it.Duration.Milliseconds())
	return err
}

// Finding is one detected memory-safety violation.
type Finding struct {
	Decoder   string
	Seed      int64
	Iter      int
	InputLen  int
	InputHash string
	Detail    string
}

// RecordFinding appends a finding row.
func (s *Store) RecordFinding(f Finding) error {
	_, err := s.db.Exec(`
INSERT INTO findings (recorded_at, decoder, seed, iter, input_len, input_hash, detail)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		f.Decoder, f.Seed, f.Iter, f.InputLen, f.InputHash, f.Detail)
	return err
}

// DecoderSummary aggregates journal rows for one decoder.
type DecoderSummary struct {
	Decoder    string `json:"decoder"`
	Iterations int64  `json:"iterations"`
	Exhausted  int64  `json:"exhausted"`
	EarlyStops int64  `json:"early_stops"`
	Consumed   int64  `json:"bytes_consumed"`
	Findings   int64  `json:"findings"`
}

// Summaries returns per-decoder aggregates across the whole journal.
func (s *Store) Summaries(ctx context.Context) ([]DecoderSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT decoder, COUNT(*), COALESCE(SUM(exhausted), 0), COALESCE(SUM(consumed), 0)
FROM iterations GROUP BY decoder ORDER BY decoder`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecoderSummary
	index := map[string]int{}
	for rows.Next() {
		var sum DecoderSummary
		if err := rows.Scan(&sum.Decoder, &sum.Iterations, &sum.Exhausted, &sum.Consumed); err != nil {
			return nil, err
		}
		sum.EarlyStops = sum.Iterations - sum.Exhausted
		index[sum.Decoder] = len(out)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx,
		`SELECT decoder, COUNT(*) FROM findings GROUP BY decoder`)
	if err != nil {
		return nil, err
	}
	defer frows.Close()
	for frows.Next() {
		var decoder string
		var count int64
		if err := frows.Scan(&decoder, &count); err != nil {
			return nil, err
		}
		if i, ok := index[decoder]; ok {
			out[i].Findings = count
		} else {
			out = append(out, DecoderSummary{Decoder: decoder, Findings: count})
		}
	}
	return out, frows.Err()
}
