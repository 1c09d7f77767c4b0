package server

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"spaces/internal/auth"
	"spaces/internal/blobstore"
	"spaces/internal/models"
	"spaces/internal/store"
)

const fallbackDownloadMediaType = "application/octet-stream"

// keyLockStripes bounds the lock table. Unrelated keys may share a stripe,
// which only costs a little extra serialization.
const keyLockStripes = 64

// keyLocks serializes blob commits and reclaim decisions per content key.
// Holding the stripe across blob commit + row insert on the upload side and
// across row delete + blob delete on the reclaim side keeps the reference
// count and the physical blob in agreement.
type keyLocks struct {
	stripes [keyLockStripes]sync.Mutex
}

func (l *keyLocks) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.stripes[h.Sum32()%keyLockStripes]
}

// FileService orchestrates upload, download, and deletion workflows across
// the catalog, the quota ledger, and the blob store.
type FileService struct {
	spaces store.SpaceStore
	files  store.FileStore
	blobs  blobstore.BlobStore
	locks  keyLocks
}

// NewFileService constructs a FileService.
func NewFileService(spaces store.SpaceStore, files store.FileStore, blobs blobstore.BlobStore) *FileService {
	return &FileService{spaces: spaces, files: files, blobs: blobs}
}

// IncomingPart is one payload in a multipart upload. The reader is only
// valid until the next part is requested.
type IncomingPart struct {
	Filename  string
	MediaType string
	Reader    io.Reader
}

// NextPartFunc yields upload parts in request order. It returns nil when
// the request holds no further parts.
type NextPartFunc func() (*IncomingPart, error)

// DownloadContent describes one opened download stream.
type DownloadContent struct {
	Reader    io.ReadCloser
	Filename  string
	MediaType string
	SizeBytes int64
}

// Upload stores each part and records one catalog row per part. Parts that
// hash to an existing blob deduplicate against it and still get their own
// row. Rows inserted before a mid-request failure stay durable; their bytes
// are added to the space ledger before the error is returned, so the ledger
// never undercounts surviving rows.
func (s *FileService) Upload(ctx context.Context, spaceID, accessCode string, nextPart NextPartFunc) ([]models.SpaceFile, error) {
	if s == nil || s.spaces == nil || s.files == nil || s.blobs == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	if nextPart == nil {
		return nil, badRequestCode(fmt.Errorf("at least one file part is required"), ErrCodeMissingRequired)
	}

	space, err := s.requireSpace(ctx, spaceID, accessCode)
	if err != nil {
		return nil, err
	}

	created := []models.SpaceFile{}
	var uploadedBytes int64
	settleLedger := func() error {
		if uploadedBytes == 0 {
			return nil
		}
		// Rows already committed must be charged even when the request
		// context died mid-upload (client disconnect), so the settle
		// does not ride on the request's cancellation.
		if err := s.spaces.AddSpaceUsage(context.WithoutCancel(ctx), space.ID, uploadedBytes); err != nil {
			return storeFailure(err)
		}
		return nil
	}

	for {
		part, err := nextPart()
		if err != nil {
			if ledgerErr := settleLedger(); ledgerErr != nil {
				return created, ledgerErr
			}
			return created, err
		}
		if part == nil {
			break
		}

		file, err := s.storePart(ctx, space.ID, part)
		if err != nil {
			if ledgerErr := settleLedger(); ledgerErr != nil {
				return created, ledgerErr
			}
			return created, err
		}
		created = append(created, *file)
		uploadedBytes += file.FileSizeBytes
	}

	if len(created) == 0 {
		return nil, badRequestCode(fmt.Errorf("at least one file part is required"), ErrCodeMissingRequired)
	}
	if err := settleLedger(); err != nil {
		return created, err
	}
	return created, nil
}

// storePart commits one payload and its catalog row. The content-key stripe
// is held from blob commit through row insert so a concurrent deletion of
// the same key cannot reclaim the blob between the two steps.
func (s *FileService) storePart(ctx context.Context, spaceID string, part *IncomingPart) (*models.SpaceFile, error) {
	filename := strings.TrimSpace(part.Filename)
	if filename == "" {
		return nil, badRequestCode(fmt.Errorf("file part is missing a filename"), ErrCodeInvalidPart)
	}

	staged, err := s.blobs.Stage(ctx, part.Reader)
	if err != nil {
		// A part reader fed by http.MaxBytesReader fails here when the
		// request body runs over the limit.
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
		}
		return nil, blobFailure(err)
	}

	lock := s.locks.forKey(staged.Key())
	lock.Lock()
	defer lock.Unlock()

	outcome, err := staged.Commit()
	if err != nil {
		return nil, blobFailure(err)
	}

	id, err := s.nextFileID(ctx)
	if err != nil {
		s.compensateBlob(ctx, staged.Key(), outcome)
		return nil, err
	}

	file := &models.SpaceFile{
		ID:               id,
		SpaceID:          spaceID,
		OriginalFilename: filename,
		FileSizeBytes:    staged.SizeBytes(),
		MimeType:         strings.TrimSpace(part.MediaType),
		Checksum:         staged.Key(),
		UploadDate:       time.Now().UTC(),
	}
	if err := s.files.InsertFile(ctx, file); err != nil {
		s.compensateBlob(ctx, staged.Key(), outcome)
		return nil, storeFailure(err)
	}
	return file, nil
}

// compensateBlob removes a blob this request created when its catalog row
// never landed and nothing else cites the key. Called under the key stripe.
func (s *FileService) compensateBlob(ctx context.Context, key string, outcome blobstore.WriteOutcome) {
	if outcome != blobstore.OutcomeCreated {
		return
	}
	refs, err := s.files.CountFilesByChecksum(ctx, key)
	if err != nil || refs > 0 {
		return
	}
	_ = s.blobs.Delete(ctx, key)
}

// List returns the file records of one space, newest first.
func (s *FileService) List(ctx context.Context, spaceID, accessCode string) ([]models.SpaceFile, error) {
	if s == nil || s.spaces == nil || s.files == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}

	space, err := s.requireSpace(ctx, spaceID, accessCode)
	if err != nil {
		return nil, err
	}

	files, err := s.files.ListFilesBySpace(ctx, space.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return files, nil
}

// Get returns one file record by id.
func (s *FileService) Get(ctx context.Context, id, accessCode string) (models.SpaceFile, error) {
	var zero models.SpaceFile
	if s == nil || s.spaces == nil || s.files == nil {
		return zero, internalError(fmt.Errorf("file service is not configured"))
	}

	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if file == nil {
		return zero, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
	}
	if _, err := s.requireSpace(ctx, file.SpaceID, accessCode); err != nil {
		return zero, err
	}
	return *file, nil
}

// Download opens the payload stream for one file and records the access.
// The caller must close the returned reader.
func (s *FileService) Download(ctx context.Context, id, accessCode string) (*DownloadContent, error) {
	if s == nil || s.spaces == nil || s.files == nil || s.blobs == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}

	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if file == nil {
		return nil, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
	}
	if _, err := s.requireSpace(ctx, file.SpaceID, accessCode); err != nil {
		return nil, err
	}

	rc, err := s.blobs.Open(ctx, file.Checksum)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			// A concurrent deletion may have removed the row and
			// reclaimed the blob after our lookup; that is an ordinary
			// 404, not a desync.
			current, lookupErr := s.files.GetFile(ctx, id)
			if lookupErr == nil && current == nil {
				return nil, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
			}
			// A live row must always have backing bytes. Surface loudly
			// rather than serving an empty stream.
			return nil, contentMissing(fmt.Errorf("content for file %s is missing from the blob store", id))
		}
		return nil, blobFailure(err)
	}

	found, err := s.files.RecordFileAccess(ctx, id, time.Now().UTC())
	if err != nil {
		_ = rc.Close()
		return nil, storeFailure(err)
	}
	if !found {
		// The record was deleted between lookup and access stamp.
		_ = rc.Close()
		return nil, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
	}

	mediaType := strings.TrimSpace(file.MimeType)
	if mediaType == "" {
		mediaType = fallbackDownloadMediaType
	}

	return &DownloadContent{
		Reader:    rc,
		Filename:  file.OriginalFilename,
		MediaType: mediaType,
		SizeBytes: file.FileSizeBytes,
	}, nil
}

// Delete removes one file record, releases its quota, and reclaims the blob
// when the last reference is gone. The content-key stripe is held across
// the reference count and the blob deletion, so a concurrent upload of the
// same payload either lands before the count (keeping the blob) or commits
// after the reclaim (rewriting it).
func (s *FileService) Delete(ctx context.Context, id string) (models.SpaceFile, error) {
	var zero models.SpaceFile
	if s == nil || s.files == nil || s.blobs == nil {
		return zero, internalError(fmt.Errorf("file service is not configured"))
	}

	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if file == nil {
		return zero, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
	}

	lock := s.locks.forKey(file.Checksum)
	lock.Lock()
	defer lock.Unlock()

	removed, remaining, err := s.files.DeleteFileWithUsage(ctx, id)
	if err != nil {
		return zero, storeFailure(err)
	}
	if removed == nil {
		// Lost a race against another deletion of the same record. That
		// deletion owns the reclaim decision.
		return zero, notFoundCode(fmt.Errorf("file not found"), ErrCodeFileNotFound)
	}

	if remaining == 0 {
		if err := s.blobs.Delete(ctx, removed.Checksum); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return zero, blobFailure(err)
		}
	}
	return *removed, nil
}

// requireSpace loads a space and checks the caller may read its contents.
// Public spaces and spaces without an access code are open; otherwise the
// supplied code must verify against the stored hash.
func (s *FileService) requireSpace(ctx context.Context, spaceID, accessCode string) (*models.Space, error) {
	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if space == nil {
		return nil, notFoundCode(fmt.Errorf("space not found"), ErrCodeSpaceNotFound)
	}
	if space.IsPublic || !space.HasAccessCode {
		return space, nil
	}
	if !auth.VerifyAccessCode(space.AccessCodeHash, accessCode) {
		return nil, unauthorizedCode(fmt.Errorf("access code is required"), ErrCodeUnauthorized)
	}
	return space, nil
}

func (s *FileService) nextFileID(ctx context.Context) (string, error) {
	id, err := store.GenerateFileID(func(id string) (bool, error) {
		file, err := s.files.GetFile(ctx, id)
		if err != nil {
			return false, err
		}
		return file != nil, nil
	})
	if err != nil {
		return "", storeFailure(err)
	}
	return id, nil
}
