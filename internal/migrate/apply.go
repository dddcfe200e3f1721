package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// TrackingTable records applied migration files by name.
	TrackingTable = "toyshare_migrations"

	// StatementBreakpoint separates statements in generated migrations.
	StatementBreakpoint = "--> statement-breakpoint"
)

// Pool is the subset of *sql.DB the runner uses.
type Pool interface {
	PingContext(ctx context.Context) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

var _ Pool = (*sql.DB)(nil)

// File is one migration file.
type File struct {
	Name string
	Path string
}

// ApplyFunc applies pending migrations from dir and returns the names of
// the files it applied.
type ApplyFunc func(ctx context.Context, pool Pool, dialect Dialect, dir string, logger *zap.Logger) ([]string, error)

// List returns the *.sql files directly inside dir in lexical order. A
// missing directory has no migrations.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		files = append(files, File{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Split breaks a migration into statements on the breakpoint marker,
// dropping empty pieces.
func Split(content string) []string {
	var out []string
	for _, part := range strings.Split(content, StatementBreakpoint) {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Apply runs every file in dir not yet recorded in the tracking table.
// Each file is applied in its own transaction together with its tracking
// row; the first failure stops the run.
func Apply(ctx context.Context, pool Pool, dialect Dialect, dir string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := pool.ExecContext(ctx, createTrackingTable); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", TrackingTable, err)
	}

	done, err := appliedNames(ctx, pool)
	if err != nil {
		return nil, err
	}

	files, err := List(dir)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		if done[f.Name] {
			logger.Debug("migration already applied", zap.String("file", f.Name))
			continue
		}
		if err := applyFile(ctx, pool, dialect, f); err != nil {
			return applied, err
		}
		logger.Info("applied migration", zap.String("file", f.Name))
		applied = append(applied, f.Name)
	}
	return applied, nil
}

var createTrackingTable = `CREATE TABLE IF NOT EXISTS ` + TrackingTable + ` (
	name VARCHAR(255) NOT NULL PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func appliedNames(ctx context.Context, pool Pool) (map[string]bool, error) {
	rows, err := pool.QueryContext(ctx, "SELECT name FROM "+TrackingTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TrackingTable, err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", TrackingTable, err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

func applyFile(ctx context.Context, pool Pool, dialect Dialect, f File) error {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", f.Name, err)
	}

	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", f.Name, err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range Split(string(content)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s statement %d: %w", f.Name, i+1, err)
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (name) VALUES (%s)", TrackingTable, dialect.placeholder(1))
	if _, err := tx.ExecContext(ctx, insert, f.Name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", f.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", f.Name, err)
	}
	return nil
}
