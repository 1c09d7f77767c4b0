package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blob bytes in a local content-addressed tree. The path of
// a blob is a pure function of its content key: <root>/aa/bb/<key> where aa
// and bb are the first two key byte pairs. Writes spool to <root>/tmp and
// become visible atomically via rename, so readers never observe a partial
// blob.
type LocalStore struct {
	root string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a local blob store rooted at root.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

// Exists reports whether a blob is stored under key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put streams bytes, computes the content key, and commits the payload
// unless an identical blob already exists.
func (s *LocalStore) Put(ctx context.Context, r io.Reader) (WriteResult, error) {
	var zero WriteResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmpPath, key, n, err := s.spool(r)
	if err != nil {
		return zero, err
	}
	outcome, err := s.commit(key, tmpPath)
	if err != nil {
		return zero, err
	}
	return WriteResult{Key: key, SizeBytes: n, Outcome: outcome}, nil
}

// Stage spools r to the temp area and computes its content key. The bytes
// do not become visible until Commit.
func (s *LocalStore) Stage(ctx context.Context, r io.Reader) (Staged, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, key, n, err := s.spool(r)
	if err != nil {
		return nil, err
	}
	return &stagedBlob{store: s, key: key, size: n, tmpPath: tmpPath}, nil
}

type stagedBlob struct {
	store   *LocalStore
	key     string
	size    int64
	tmpPath string
	done    bool
}

func (b *stagedBlob) Key() string      { return b.key }
func (b *stagedBlob) SizeBytes() int64 { return b.size }

func (b *stagedBlob) Commit() (WriteOutcome, error) {
	if b.done {
		return "", fmt.Errorf("staged blob %s already finished", b.key)
	}
	b.done = true
	return b.store.commit(b.key, b.tmpPath)
}

func (b *stagedBlob) Discard() {
	if b.done {
		return
	}
	b.done = true
	_ = os.Remove(b.tmpPath)
}

// WriteIfAbsent stores bytes under a caller-supplied key. The payload digest
// must match the key; a mismatch fails with ErrContentMismatch rather than
// overwriting whatever the key already names.
func (s *LocalStore) WriteIfAbsent(ctx context.Context, key string, r io.Reader) (WriteResult, error) {
	var zero WriteResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if !ValidKey(key) {
		return zero, fmt.Errorf("invalid content key %q", key)
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmpPath, digest, n, err := s.spool(r)
	if err != nil {
		return zero, err
	}
	if digest != key {
		_ = os.Remove(tmpPath)
		return zero, fmt.Errorf("key %s, got digest %s: %w", key, digest, ErrContentMismatch)
	}
	outcome, err := s.commit(key, tmpPath)
	if err != nil {
		return zero, err
	}
	return WriteResult{Key: key, SizeBytes: n, Outcome: outcome}, nil
}

// Open returns a reader for the blob stored under key.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the blob stored under key. Callers are responsible for
// ensuring no catalog record still cites the key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, ErrNotFound)
		}
		return err
	}
	return nil
}

// spool copies r to a temp file under the store root while hashing it.
// Returns the temp path, the payload's content key, and the byte count.
func (s *LocalStore) spool(r io.Reader) (string, string, int64, error) {
	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return "", "", 0, err
	}
	tmpPath := tmp.Name()

	key, n, err := Digest(io.TeeReader(r, tmp))
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", "", 0, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", "", 0, err
	}
	return tmpPath, key, n, nil
}

// commit moves a spooled payload into its content-addressed location. When
// the destination already exists the spool file is discarded; both racers on
// the same key observe success.
func (s *LocalStore) commit(key, tmpPath string) (WriteOutcome, error) {
	dst, err := s.pathFromKey(key)
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return OutcomeAlreadyPresent, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		// A racer may have committed the same key between stat and rename.
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return OutcomeAlreadyPresent, nil
		}
		_ = os.Remove(tmpPath)
		return "", err
	}
	return OutcomeCreated, nil
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid content key %q", key)
	}
	return filepath.Join(s.root, key[0:2], key[2:4], key), nil
}
