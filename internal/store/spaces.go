package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spaces/internal/models"
)

const spaceColumns = "id, name, description, is_public, access_code_hash, total_size_used_bytes, created_at, updated_at"

// SpaceExists checks whether a space exists by id.
func (s *Store) SpaceExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM spaces WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateSpace inserts one space row.
func (s *Store) CreateSpace(ctx context.Context, space *models.Space) error {
	if space == nil {
		return fmt.Errorf("space is required")
	}

	now := time.Now().UTC()
	if space.CreatedAt.IsZero() {
		space.CreatedAt = now
	}
	if space.UpdatedAt.IsZero() {
		space.UpdatedAt = space.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (id, name, description, is_public, access_code_hash, total_size_used_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		space.ID,
		space.Name,
		nullIfEmpty(strings.TrimSpace(space.Description)),
		boolToInt(space.IsPublic),
		nullIfEmpty(space.AccessCodeHash),
		space.TotalSizeUsedBytes,
		formatTime(space.CreatedAt),
		formatTime(space.UpdatedAt),
	)
	return err
}

// GetSpace returns one space by id, or nil when absent.
func (s *Store) GetSpace(ctx context.Context, id string) (*models.Space, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id)
	return scanSpace(row)
}

// ListSpaces lists all spaces, newest first.
func (s *Store) ListSpaces(ctx context.Context) ([]models.Space, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spaces := []models.Space{}
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		if space != nil {
			spaces = append(spaces, *space)
		}
	}
	return spaces, rows.Err()
}

// SpaceUpdate describes a partial space update. Nil fields keep their
// current values.
type SpaceUpdate struct {
	Name           *string
	Description    *string
	IsPublic       *bool
	AccessCodeHash *string
}

// UpdateSpace applies a partial update and reports whether the row existed.
func (s *Store) UpdateSpace(ctx context.Context, id string, update SpaceUpdate) (bool, error) {
	var isPublic any
	if update.IsPublic != nil {
		isPublic = boolToInt(*update.IsPublic)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE spaces
		SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			is_public = COALESCE(?, is_public),
			access_code_hash = COALESCE(?, access_code_hash),
			updated_at = ?
		WHERE id = ?
	`,
		nullStringPtr(update.Name),
		nullStringPtr(update.Description),
		isPublic,
		nullStringPtr(update.AccessCodeHash),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteSpaceIfEmpty removes a space only when it holds no file records.
// It returns the removed space (nil when absent) and the live file count
// observed in the same transaction; the row is deleted only when that count
// is zero.
func (s *Store) DeleteSpaceIfEmpty(ctx context.Context, id string) (_ *models.Space, fileCount int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	space, err := scanSpace(tx.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id))
	if err != nil {
		return nil, 0, err
	}
	if space == nil {
		return nil, 0, tx.Commit()
	}

	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE space_id = ?", id).Scan(&fileCount); err != nil {
		return nil, 0, err
	}
	if fileCount > 0 {
		return space, fileCount, tx.Commit()
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM spaces WHERE id = ?", id); err != nil {
		return nil, 0, err
	}
	return space, 0, tx.Commit()
}

// AddSpaceUsage increments the space usage counter by delta bytes in one
// atomic statement.
func (s *Store) AddSpaceUsage(ctx context.Context, id string, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("usage delta must be >= 0")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE spaces SET total_size_used_bytes = total_size_used_bytes + ? WHERE id = ?
	`, delta, id)
	return err
}

// SubtractSpaceUsage decrements the space usage counter by delta bytes,
// clamped at zero so drift from lost updates can never push it negative.
func (s *Store) SubtractSpaceUsage(ctx context.Context, id string, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("usage delta must be >= 0")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE spaces SET total_size_used_bytes = MAX(0, total_size_used_bytes - ?) WHERE id = ?
	`, delta, id)
	return err
}

func scanSpace(scanner interface {
	Scan(dest ...any) error
}) (*models.Space, error) {
	space := models.Space{}

	var description, accessCodeHash sql.NullString
	var isPublic int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&space.ID,
		&space.Name,
		&description,
		&isPublic,
		&accessCodeHash,
		&space.TotalSizeUsedBytes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	space.Description = description.String
	space.IsPublic = isPublic != 0
	space.AccessCodeHash = accessCodeHash.String
	space.HasAccessCode = accessCodeHash.Valid && accessCodeHash.String != ""

	if space.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if space.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &space, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
