package corpus

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/oracle"
)

const schema = `
CREATE TABLE IF NOT EXISTS mismatches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	trial INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	caller TEXT NOT NULL,
	caller_params INTEGER NOT NULL,
	caller_signature TEXT NOT NULL,
	callee_id INTEGER NOT NULL,
	callee TEXT NOT NULL,
	callee_params INTEGER NOT NULL,
	callee_signature TEXT NOT NULL,
	call TEXT NOT NULL,
	expected INTEGER NOT NULL,
	actual INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mismatches_run ON mismatches(run_id);
`

// Entry is one recorded mismatch.
type Entry struct {
	RecordedAt time.Time
	RunID      string
	oracle.Mismatch
	ID int64
}

// Store persists mismatches in a SQLite database.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Storage("create corpus directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Storage("open corpus", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Storage("create corpus schema", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Record stores m under runID.
func (s *Store) Record(ctx context.Context, runID string, m *oracle.Mismatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// SQLite integers are signed; 64-bit words are stored by bit pattern.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mismatches (run_id, trial, seed, caller, caller_params, caller_signature,
			callee_id, callee, callee_params, callee_signature, call, expected, actual, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Trial, int64(m.Seed), m.Caller, m.CallerParams, m.CallerSignature,
		m.CalleeID, m.CalleeName, m.CalleeParams, m.CalleeSignature, m.Call,
		int64(m.Expected), int64(m.Actual), time.Now().UnixNano())
	if err != nil {
		return errors.Storage("record mismatch", err)
	}
	return nil
}

// List returns every recorded mismatch, oldest first. A non-empty runID
// restricts the list to that run.
func (s *Store) List(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, run_id, trial, seed, caller, caller_params, caller_signature,
		callee_id, callee, callee_params, callee_signature, call, expected, actual, recorded_at
		FROM mismatches`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage("query mismatches", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                          Entry
			seed, expected, actual, at int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Trial, &seed, &e.Caller, &e.CallerParams,
			&e.CallerSignature, &e.CalleeID, &e.CalleeName, &e.CalleeParams,
			&e.CalleeSignature, &e.Call, &expected, &actual, &at); err != nil {
			return nil, errors.Storage("scan mismatch", err)
		}
		e.Seed, e.Expected, e.Actual = uint64(seed), uint64(expected), uint64(actual)
		e.RecordedAt = time.Unix(0, at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate mismatches", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
