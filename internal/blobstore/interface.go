package blobstore

import (
	"context"
	"errors"
	"io"
)

// WriteOutcome reports whether a write created a new blob or found one
// already stored under the same content key.
type WriteOutcome string

const (
	OutcomeCreated        WriteOutcome = "created"
	OutcomeAlreadyPresent WriteOutcome = "already_present"
)

// WriteResult describes one persisted blob payload.
type WriteResult struct {
	Key       string
	SizeBytes int64
	Outcome   WriteOutcome
}

// ErrNotFound is returned when a content key has no backing bytes.
var ErrNotFound = errors.New("blob not found")

// ErrContentMismatch is returned when a payload hashes to a different key
// than the one it was submitted under. This indicates corruption somewhere
// between the caller and the store and is never recovered silently.
var ErrContentMismatch = errors.New("payload digest does not match content key")

// Staged is a spooled payload whose content key and size are known but
// whose bytes are not yet visible to readers. Exactly one of Commit or
// Discard must be called.
type Staged interface {
	Key() string
	SizeBytes() int64
	Commit() (WriteOutcome, error)
	Discard()
}

// BlobStore maps content keys to physical bytes. The store does not count
// references; deciding when a blob may be deleted belongs to the caller.
type BlobStore interface {
	// Exists reports whether bytes are stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Put streams r into the store, computes its content key, and commits
	// the bytes unless an identical blob is already present.
	Put(ctx context.Context, r io.Reader) (WriteResult, error)

	// Stage spools r and computes its content key without committing.
	// Callers that need to hold a lock keyed on the content across the
	// commit use Stage followed by Staged.Commit.
	Stage(ctx context.Context, r io.Reader) (Staged, error)

	// WriteIfAbsent stores r under a caller-supplied key. The payload is
	// re-hashed while spooling; a digest that differs from key fails with
	// ErrContentMismatch. Two callers racing on the same key both succeed.
	WriteIfAbsent(ctx context.Context, key string, r io.Reader) (WriteResult, error)

	// Open returns a reader for the blob stored under key, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob stored under key, or fails with ErrNotFound.
	Delete(ctx context.Context, key string) error
}
