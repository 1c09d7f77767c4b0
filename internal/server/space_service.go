package server

import (
	"context"
	"fmt"
	"strings"

	"spaces/internal/auth"
	"spaces/internal/models"
	"spaces/internal/store"
)

// SpaceService orchestrates space lifecycle and access-code handling. The
// plaintext access code never reaches the store; only the bcrypt hash does.
type SpaceService struct {
	spaces store.SpaceStore
}

// NewSpaceService constructs a SpaceService.
func NewSpaceService(spaces store.SpaceStore) *SpaceService {
	return &SpaceService{spaces: spaces}
}

// CreateSpaceInput describes a new space.
type CreateSpaceInput struct {
	Name        string
	Description string
	IsPublic    *bool
	AccessCode  string
}

// UpdateSpaceInput describes a partial space update. Nil fields keep their
// current values. An empty non-nil AccessCode clears the code.
type UpdateSpaceInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	AccessCode  *string
}

// CreateSpace creates a new space.
func (s *SpaceService) CreateSpace(ctx context.Context, in CreateSpaceInput) (models.Space, error) {
	var zero models.Space
	if s == nil || s.spaces == nil {
		return zero, internalError(fmt.Errorf("space service is not configured"))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return zero, badRequestCode(fmt.Errorf("name is required"), ErrCodeMissingRequired)
	}
	if !validateSpaceName(name) {
		return zero, badRequestCode(fmt.Errorf("name must be at most %d characters", maxSpaceNameLength), ErrCodeInvalidArgument)
	}

	var accessCodeHash string
	if strings.TrimSpace(in.AccessCode) != "" {
		hash, err := auth.HashAccessCode(in.AccessCode)
		if err != nil {
			return zero, badRequestCode(err, ErrCodeInvalidAccessCode)
		}
		accessCodeHash = hash
	}

	isPublic := false
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	id, err := store.GenerateSpaceID(func(id string) (bool, error) {
		return s.spaces.SpaceExists(ctx, id)
	})
	if err != nil {
		return zero, storeFailure(err)
	}

	space := &models.Space{
		ID:             id,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		IsPublic:       isPublic,
		AccessCodeHash: accessCodeHash,
	}
	if err := s.spaces.CreateSpace(ctx, space); err != nil {
		return zero, storeFailure(err)
	}

	stored, err := s.spaces.GetSpace(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if stored == nil {
		return zero, internalError(fmt.Errorf("space not found after create"))
	}
	return *stored, nil
}

// ListSpaces lists all spaces, newest first.
func (s *SpaceService) ListSpaces(ctx context.Context) ([]models.Space, error) {
	if s == nil || s.spaces == nil {
		return nil, internalError(fmt.Errorf("space service is not configured"))
	}
	spaces, err := s.spaces.ListSpaces(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return spaces, nil
}

// GetSpace returns one space by id.
func (s *SpaceService) GetSpace(ctx context.Context, id string) (models.Space, error) {
	var zero models.Space
	if s == nil || s.spaces == nil {
		return zero, internalError(fmt.Errorf("space service is not configured"))
	}

	space, err := s.spaces.GetSpace(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if space == nil {
		return zero, notFoundCode(fmt.Errorf("space not found"), ErrCodeSpaceNotFound)
	}
	return *space, nil
}

// UpdateSpace applies a partial update and returns the updated space.
func (s *SpaceService) UpdateSpace(ctx context.Context, id string, in UpdateSpaceInput) (models.Space, error) {
	var zero models.Space
	if s == nil || s.spaces == nil {
		return zero, internalError(fmt.Errorf("space service is not configured"))
	}

	update := store.SpaceUpdate{
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !validateSpaceName(name) {
			return zero, badRequestCode(fmt.Errorf("name must be 1 to %d characters", maxSpaceNameLength), ErrCodeInvalidArgument)
		}
		update.Name = &name
	}
	if in.AccessCode != nil {
		code := strings.TrimSpace(*in.AccessCode)
		if code == "" {
			// Clearing the code stores an empty hash, which scans back as
			// has_access_code = false.
			empty := ""
			update.AccessCodeHash = &empty
		} else {
			hash, err := auth.HashAccessCode(code)
			if err != nil {
				return zero, badRequestCode(err, ErrCodeInvalidAccessCode)
			}
			update.AccessCodeHash = &hash
		}
	}

	found, err := s.spaces.UpdateSpace(ctx, id, update)
	if err != nil {
		return zero, storeFailure(err)
	}
	if !found {
		return zero, notFoundCode(fmt.Errorf("space not found"), ErrCodeSpaceNotFound)
	}

	stored, err := s.spaces.GetSpace(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if stored == nil {
		return zero, notFoundCode(fmt.Errorf("space not found"), ErrCodeSpaceNotFound)
	}
	return *stored, nil
}

// DeleteSpace removes an empty space and returns the removed record. A
// space still holding file records is refused so no catalog row can lose
// its space.
func (s *SpaceService) DeleteSpace(ctx context.Context, id string) (models.Space, error) {
	var zero models.Space
	if s == nil || s.spaces == nil {
		return zero, internalError(fmt.Errorf("space service is not configured"))
	}

	space, fileCount, err := s.spaces.DeleteSpaceIfEmpty(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if space == nil {
		return zero, notFoundCode(fmt.Errorf("space not found"), ErrCodeSpaceNotFound)
	}
	if fileCount > 0 {
		return zero, conflictCode(fmt.Errorf("space holds %d files; delete them first", fileCount), ErrCodeSpaceNotEmpty)
	}
	return *space, nil
}
