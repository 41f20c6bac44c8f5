// Package journal persists finished executions in SQLite.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/caffeineduck/sexprbox/executor"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - executions table
const currentSchemaVersion = 1

var ErrNotFound = errors.New("execution not found")

// Entry is one stored execution.
type Entry struct {
	ID       string
	Guest    string
	Digest   string
	Input    []byte
	Journal  []byte
	Status   string
	Reason   string
	Duration time.Duration
	Created  time.Time
}

// Store records executions. It implements executor.Recorder.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ executor.Recorder = (*Store)(nil)

// Open creates or opens the database at path with WAL journaling, a busy
// timeout and a single connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts e. A zero Created time means now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Created.IsZero() {
		e.Created = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
			(id, guest, module_digest, input, journal, status, reason, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Guest, e.Digest, e.Input, e.Journal, e.Status, e.Reason,
		int64(e.Duration), e.Created.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record execution %s: %w", e.ID, err)
	}
	return nil
}

// RecordExecution stores a finished run.
func (s *Store) RecordExecution(ctx context.Context, x executor.Execution) error {
	e := Entry{
		ID:       x.ID,
		Guest:    x.Guest,
		Digest:   x.Digest,
		Input:    x.Input,
		Journal:  x.Journal,
		Status:   x.Status(),
		Duration: x.Duration,
	}
	if x.Error != nil {
		e.Reason = x.Error.Error()
	}
	return s.Record(ctx, e)
}

// Get returns the execution with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guest, module_digest, input, journal, status, reason, duration_ns, created_at
		FROM executions WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get execution %s: %w", id, err)
	}
	return e, nil
}

// List returns up to limit executions, newest first. A limit <= 0 returns
// all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guest, module_digest, input, journal, status, reason, duration_ns, created_at
		FROM executions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return entries, nil
}

// Prune deletes executions created before cutoff and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM executions WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune executions: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (Entry, error) {
	var (
		e        Entry
		duration int64
		created  int64
	)
	err := r.Scan(&e.ID, &e.Guest, &e.Digest, &e.Input, &e.Journal,
		&e.Status, &e.Reason, &duration, &created)
	if err != nil {
		return Entry{}, err
	}
	e.Duration = time.Duration(duration)
	e.Created = time.Unix(0, created)
	return e, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
