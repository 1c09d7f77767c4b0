package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// Store wraps the SQLite database holding the space and file catalogs. The
// spaces table carries the quota ledger column total_size_used_bytes.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database and applies pending migrations.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Info summarizes catalog state for the info endpoint.
type Info struct {
	SchemaVersion    int   `json:"schema_version"`
	SpaceCount       int64 `json:"space_count"`
	FileCount        int64 `json:"file_count"`
	BlobCount        int64 `json:"blob_count"`
	TotalStoredBytes int64 `json:"total_stored_bytes"`
}

// StoreInfo reports schema version and catalog counts. TotalStoredBytes is
// the physical footprint: each distinct checksum counted once.
func (s *Store) StoreInfo(ctx context.Context) (Info, error) {
	var info Info
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&info.SchemaVersion); err != nil {
		return info, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spaces").Scan(&info.SpaceCount); err != nil {
		return info, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&info.FileCount); err != nil {
		return info, err
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size), 0)
		FROM (SELECT checksum, MAX(file_size_bytes) AS size FROM files GROUP BY checksum)
	`).Scan(&info.BlobCount, &info.TotalStoredBytes)
	if err != nil {
		return info, err
	}
	return info, nil
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}
