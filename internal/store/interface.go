package store

import (
	"context"
	"time"

	"spaces/internal/models"
)

// SpaceStore abstracts the space catalog and its quota ledger.
type SpaceStore interface {
	SpaceExists(ctx context.Context, id string) (bool, error)
	CreateSpace(ctx context.Context, space *models.Space) error
	GetSpace(ctx context.Context, id string) (*models.Space, error)
	ListSpaces(ctx context.Context) ([]models.Space, error)
	UpdateSpace(ctx context.Context, id string, update SpaceUpdate) (bool, error)
	DeleteSpaceIfEmpty(ctx context.Context, id string) (*models.Space, int64, error)
	AddSpaceUsage(ctx context.Context, id string, delta int64) error
	SubtractSpaceUsage(ctx context.Context, id string, delta int64) error
}

// FileStore abstracts the file catalog.
type FileStore interface {
	InsertFile(ctx context.Context, file *models.SpaceFile) error
	GetFile(ctx context.Context, id string) (*models.SpaceFile, error)
	ListFilesBySpace(ctx context.Context, spaceID string) ([]models.SpaceFile, error)
	CountFilesByChecksum(ctx context.Context, checksum string) (int64, error)
	RecordFileAccess(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteFileWithUsage(ctx context.Context, id string) (*models.SpaceFile, int64, error)
}

var _ SpaceStore = (*Store)(nil)
var _ FileStore = (*Store)(nil)
