package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status values stored per delivery.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
)

// Entry is one recorded job-processing attempt.
type Entry struct {
	ID           int64
	InvocationID string
	JobID        int
	User         string
	Title        string
	Path         string
	Bytes        int64
	SHA256       string
	LooksPDF     bool
	Status       string
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := retryOnBusy(ctx, func() error { return store.initSchema(ctx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry and returns its row id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if strings.TrimSpace(e.Status) == "" {
		return 0, errors.New("journal entry requires a status")
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `INSERT INTO deliveries (
			invocation_id, job_id, user_name, title, path, bytes, sha256, looks_pdf,
			status, error_kind, error_message, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.InvocationID, e.JobID, e.User, e.Title, e.Path, e.Bytes, e.SHA256, boolToInt(e.LooksPDF),
			e.Status, e.ErrorKind, e.ErrorMessage,
			e.StartedAt.UTC().Format(timeLayout), e.FinishedAt.UTC().Format(timeLayout),
		)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("insert delivery: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries for user, newest first. An empty user
// returns entries for everyone.
func (s *Store) Recent(ctx context.Context, user string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, invocation_id, job_id, user_name, title, path, bytes, sha256, looks_pdf,
		status, error_kind, error_message, started_at, finished_at
		FROM deliveries`
	args := []any{}
	if user = strings.TrimSpace(user); user != "" {
		query += " WHERE user_name = ?"
		args = append(args, user)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			looksPDF          int
			started, finished string
		)
		if err := rows.Scan(&e.ID, &e.InvocationID, &e.JobID, &e.User, &e.Title, &e.Path, &e.Bytes, &e.SHA256,
			&looksPDF, &e.Status, &e.ErrorKind, &e.ErrorMessage, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		e.LooksPDF = looksPDF != 0
		e.StartedAt = parseTime(started)
		e.FinishedAt = parseTime(finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return entries, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
