// Package history persists assessments in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
)

// ErrNotFound is returned when an assessment does not exist.
var ErrNotFound = errors.New("assessment not found")

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Summary is one row of the assessment history.
type Summary struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Keyword     string    `json:"keyword,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Consistency int       `json:"consistency"`
	GateStatus  string    `json:"gate_status,omitempty"`
}

// Store is an assessment history backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// dsn applies the pragmas through the driver so that every pooled
// connection gets them, not only the first.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		keyword TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		consistency INTEGER NOT NULL DEFAULT 0,
		gate_status TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_assessments_source ON assessments(source);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts or replaces a.
func (s *Store) Save(ctx context.Context, a *evaluation.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	gateStatus := ""
	if a.Gates != nil {
		gateStatus = string(a.Gates.Status)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessments (id, source, keyword, created_at, consistency, gate_status, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Source, a.Keyword, a.CreatedAt.UTC().Format(timeLayout),
		a.Consistency.Scalar(), gateStatus, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", a.ID, err)
	}
	return nil
}

// Get returns the assessment with id.
func (s *Store) Get(ctx context.Context, id string) (*evaluation.Assessment, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM assessments WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment %s: %w", id, err)
	}
	var a evaluation.Assessment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return &a, nil
}

// List returns the most recent assessments first. source filters by exact
// source when non-empty; limit <= 0 means DefaultListLimit.
func (s *Store) List(ctx context.Context, source string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT id, source, keyword, created_at, consistency, gate_status FROM assessments`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.Keyword, &created, &sum.Consistency, &sum.GateStatus); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		sum.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the assessment with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assessment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
