package history

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

// Store persists build records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Build is one ledger row.
type Build struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Addon       string    `json:"addon"`
	Version     string    `json:"version"`
	Package     string    `json:"package"`
	ArchivePath string    `json:"archive_path,omitempty"`
	Entries     int       `json:"entries"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256,omitempty"`
	Built       bool      `json:"built"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const buildColumns = "id, run_id, addon, version, package, archive_path, entries, size_bytes, sha256, built, created_at"

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
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

// Open initializes or connects to the ledger at path, creating its directory.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
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
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
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

// Record appends b to the ledger and fills in its ID and, when unset,
// CreatedAt.
func (s *Store) Record(ctx context.Context, b *Build) error {
	if b == nil {
		return errors.New("build record is nil")
	}
	if strings.TrimSpace(b.Addon) == "" {
		return errors.New("build record requires an addon")
	}
	ctx = ensureContext(ctx)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO builds (run_id, addon, version, package, archive_path, entries, size_bytes, sha256, built, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.RunID, b.Addon, b.Version, b.Package, b.ArchivePath, b.Entries, b.SizeBytes, b.SHA256,
			boolToInt(b.Built), b.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("build id: %w", err)
	}
	b.ID = id
	return nil
}

// List returns up to limit records, newest first. An empty addon lists every
// addon; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, addon string, limit int) ([]Build, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + buildColumns + " FROM builds"
	var args []any
	if addon = strings.TrimSpace(addon); addon != "" {
		query += " WHERE addon = ?"
		args = append(args, addon)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var builds []Build
	err := retryOnBusy(ctx, func() error {
		builds = builds[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			b, err := scanBuild(rows)
			if err != nil {
				return err
			}
			builds = append(builds, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	return builds, nil
}

// Latest returns the newest record for addon, or nil when none exists.
func (s *Store) Latest(ctx context.Context, addon string) (*Build, error) {
	builds, err := s.List(ctx, addon, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, nil
	}
	return &builds[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (Build, error) {
	var (
		b       Build
		built   int
		created string
	)
	if err := row.Scan(&b.ID, &b.RunID, &b.Addon, &b.Version, &b.Package, &b.ArchivePath,
		&b.Entries, &b.SizeBytes, &b.SHA256, &built, &created); err != nil {
		return Build{}, err
	}
	b.Built = built != 0
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		b.CreatedAt = ts
	}
	return b, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
