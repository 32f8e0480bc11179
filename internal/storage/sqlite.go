package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/IshaanNene/planewatch/internal/types"
)

const createSeenTableSQL = `
CREATE TABLE IF NOT EXISTS seen_ids (
	"ad_id" TEXT NOT NULL PRIMARY KEY,
	"rank"  INTEGER NOT NULL
);`

// SQLiteSeenStore keeps the seen-set in a SQLite table, ordered by rank.
type SQLiteSeenStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteSeenStore opens the database at path and ensures the table exists.
func NewSQLiteSeenStore(path string, logger *slog.Logger) (*SQLiteSeenStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the run is single-threaded.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(createSeenTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create seen table: %w", err)
	}

	return &SQLiteSeenStore{
		db:     db,
		path:   path,
		logger: logger.With("component", "seen_sqlite"),
	}, nil
}

func (s *SQLiteSeenStore) Name() string { return "sqlite" }

// Load implements SeenStore.
func (s *SQLiteSeenStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ad_id FROM seen_ids ORDER BY rank ASC`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	return ids, nil
}

// Save implements SeenStore. The table is replaced in one transaction.
func (s *SQLiteSeenStore) Save(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_ids`); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO seen_ids (ad_id, rank) VALUES (?, ?)`)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, i); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("insert %s: %w", id, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	s.logger.Debug("seen set saved", "path", s.path, "count", len(ids))
	return nil
}

func (s *SQLiteSeenStore) Close() error {
	return s.db.Close()
}
