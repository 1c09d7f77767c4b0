package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spaces/internal/models"
)

const fileColumns = "id, space_id, original_filename, file_size_bytes, mime_type, checksum, download_count, upload_date, last_accessed"

// InsertFile inserts one file record. Every upload gets its own row, even
// when the payload deduplicated against an existing blob.
func (s *Store) InsertFile(ctx context.Context, file *models.SpaceFile) error {
	if file == nil {
		return fmt.Errorf("file is required")
	}
	if strings.TrimSpace(file.Checksum) == "" {
		return fmt.Errorf("checksum is required")
	}
	if file.FileSizeBytes < 0 {
		return fmt.Errorf("file_size_bytes must be >= 0")
	}

	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, space_id, original_filename, file_size_bytes, mime_type, checksum, download_count, upload_date, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		file.ID,
		file.SpaceID,
		file.OriginalFilename,
		file.FileSizeBytes,
		nullIfEmpty(strings.TrimSpace(file.MimeType)),
		file.Checksum,
		file.DownloadCount,
		formatTime(file.UploadDate),
		nullTime(file.LastAccessed),
	)
	return err
}

// GetFile returns one file record by id, or nil when absent.
func (s *Store) GetFile(ctx context.Context, id string) (*models.SpaceFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

// ListFilesBySpace lists file records for one space, newest first.
func (s *Store) ListFilesBySpace(ctx context.Context, spaceID string) ([]models.SpaceFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files WHERE space_id = ? ORDER BY upload_date DESC, id`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.SpaceFile{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if file != nil {
			files = append(files, *file)
		}
	}
	return files, rows.Err()
}

// CountFilesByChecksum returns the number of live file records citing one
// content key.
func (s *Store) CountFilesByChecksum(ctx context.Context, checksum string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE checksum = ?", checksum).Scan(&count)
	return count, err
}

// RecordFileAccess increments the download counter and stamps last_accessed.
// It reports whether the record still existed.
func (s *Store) RecordFileAccess(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE files SET download_count = download_count + 1, last_accessed = ? WHERE id = ?
	`, formatTime(at), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteFileWithUsage removes one file record, applies the clamped quota
// decrement to its space, and counts the remaining records citing the same
// checksum, all in one transaction. It returns the removed record (nil when
// absent) and that remaining reference count. The caller reclaims the blob
// when the count is zero, under the per-key lock.
func (s *Store) DeleteFileWithUsage(ctx context.Context, id string) (_ *models.SpaceFile, remaining int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	file, err := scanFile(tx.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
	if err != nil {
		return nil, 0, err
	}
	if file == nil {
		return nil, 0, tx.Commit()
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id); err != nil {
		return nil, 0, err
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE spaces SET total_size_used_bytes = MAX(0, total_size_used_bytes - ?) WHERE id = ?
	`, file.FileSizeBytes, file.SpaceID); err != nil {
		return nil, 0, err
	}
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE checksum = ?", file.Checksum).Scan(&remaining); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}
	return file, remaining, nil
}

func scanFile(scanner interface {
	Scan(dest ...any) error
}) (*models.SpaceFile, error) {
	file := models.SpaceFile{}

	var mimeType sql.NullString
	var uploadDate string
	var lastAccessed sql.NullString

	err := scanner.Scan(
		&file.ID,
		&file.SpaceID,
		&file.OriginalFilename,
		&file.FileSizeBytes,
		&mimeType,
		&file.Checksum,
		&file.DownloadCount,
		&uploadDate,
		&lastAccessed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	file.MimeType = mimeType.String

	if file.UploadDate, err = parseTime(uploadDate); err != nil {
		return nil, err
	}
	if lastAccessed.Valid {
		parsed, err := parseTime(lastAccessed.String)
		if err != nil {
			return nil, err
		}
		file.LastAccessed = &parsed
	}

	return &file, nil
}
