package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spaces/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testSpace(t *testing.T, st *Store, id string) *models.Space {
	t.Helper()
	space := &models.Space{ID: id, Name: "Space " + id}
	if err := st.CreateSpace(context.Background(), space); err != nil {
		t.Fatalf("create space %s: %v", id, err)
	}
	return space
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not re-apply migrations.
	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	info, err := st.StoreInfo(context.Background())
	if err != nil {
		t.Fatalf("store info: %v", err)
	}
	if info.SchemaVersion != 1 {
		t.Fatalf("expected schema version 1, got %d", info.SchemaVersion)
	}
}

func TestStoreInfoCountsBlobsOnce(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-one")
	testSpace(t, st, "sp-two")

	shared := "aa11bb22"
	insertTestFile(t, st, "fl-1", "sp-one", 10, shared)
	insertTestFile(t, st, "fl-2", "sp-two", 10, shared)
	insertTestFile(t, st, "fl-3", "sp-one", 7, "cc33dd44")

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("store info: %v", err)
	}
	if info.SpaceCount != 2 {
		t.Fatalf("expected 2 spaces, got %d", info.SpaceCount)
	}
	if info.FileCount != 3 {
		t.Fatalf("expected 3 files, got %d", info.FileCount)
	}
	if info.BlobCount != 2 {
		t.Fatalf("expected 2 distinct blobs, got %d", info.BlobCount)
	}
	if info.TotalStoredBytes != 17 {
		t.Fatalf("expected 17 stored bytes, got %d", info.TotalStoredBytes)
	}
}

func insertTestFile(t *testing.T, st *Store, id, spaceID string, size int64, checksum string) {
	t.Helper()
	file := &models.SpaceFile{
		ID:               id,
		SpaceID:          spaceID,
		OriginalFilename: id + ".bin",
		FileSizeBytes:    size,
		Checksum:         checksum,
		UploadDate:       time.Now().UTC(),
	}
	if err := st.InsertFile(context.Background(), file); err != nil {
		t.Fatalf("insert file %s: %v", id, err)
	}
}
