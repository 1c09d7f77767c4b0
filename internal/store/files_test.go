package store

import (
	"context"
	"testing"
	"time"

	"spaces/internal/models"
)

func TestInsertAndGetFile(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-files0")

	file := &models.SpaceFile{
		ID:               "fl-one111",
		SpaceID:          "sp-files0",
		OriginalFilename: "report final (2).pdf",
		FileSizeBytes:    1234,
		MimeType:         "application/pdf",
		Checksum:         "ab12cd34",
	}
	if err := st.InsertFile(ctx, file); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.GetFile(ctx, "fl-one111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected file, got nil")
	}
	if got.OriginalFilename != "report final (2).pdf" {
		t.Fatalf("filename mangled: %q", got.OriginalFilename)
	}
	if got.FileSizeBytes != 1234 {
		t.Fatalf("expected 1234 bytes, got %d", got.FileSizeBytes)
	}
	if got.DownloadCount != 0 {
		t.Fatalf("expected zero downloads, got %d", got.DownloadCount)
	}
	if got.LastAccessed != nil {
		t.Fatalf("expected nil last_accessed, got %v", got.LastAccessed)
	}
	if got.UploadDate.IsZero() {
		t.Fatal("expected upload date to be set")
	}
}

func TestInsertFileValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.InsertFile(ctx, nil); err == nil {
		t.Fatal("nil file accepted")
	}
	if err := st.InsertFile(ctx, &models.SpaceFile{ID: "fl-bad000", SpaceID: "sp-x"}); err == nil {
		t.Fatal("missing checksum accepted")
	}
	if err := st.InsertFile(ctx, &models.SpaceFile{ID: "fl-bad001", SpaceID: "sp-x", Checksum: "aa", FileSizeBytes: -1}); err == nil {
		t.Fatal("negative size accepted")
	}
}

func TestListFilesBySpaceNewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-list00")
	testSpace(t, st, "sp-other0")

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"fl-old000", "fl-mid000", "fl-new000"} {
		file := &models.SpaceFile{
			ID:               id,
			SpaceID:          "sp-list00",
			OriginalFilename: id,
			FileSizeBytes:    1,
			Checksum:         "cc" + id,
			UploadDate:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.InsertFile(ctx, file); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	insertTestFile(t, st, "fl-foreign", "sp-other0", 1, "dd00")

	files, err := st.ListFilesBySpace(ctx, "sp-list00")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	if files[0].ID != "fl-new000" || files[2].ID != "fl-old000" {
		t.Fatalf("wrong order: %s, %s, %s", files[0].ID, files[1].ID, files[2].ID)
	}
}

func TestCountFilesByChecksum(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-cnt000")
	testSpace(t, st, "sp-cnt001")

	shared := "ee77ff88"
	insertTestFile(t, st, "fl-cnt000", "sp-cnt000", 5, shared)
	insertTestFile(t, st, "fl-cnt001", "sp-cnt001", 5, shared)

	count, err := st.CountFilesByChecksum(ctx, shared)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 references, got %d", count)
	}

	count, err = st.CountFilesByChecksum(ctx, "0000")
	if err != nil {
		t.Fatalf("count unknown: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 references, got %d", count)
	}
}

func TestRecordFileAccess(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-acc000")
	insertTestFile(t, st, "fl-acc000", "sp-acc000", 9, "ab99")

	at := time.Now().UTC().Truncate(time.Millisecond)
	found, err := st.RecordFileAccess(ctx, "fl-acc000", at)
	if err != nil {
		t.Fatalf("record access: %v", err)
	}
	if !found {
		t.Fatal("expected record to exist")
	}

	got, err := st.GetFile(ctx, "fl-acc000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DownloadCount != 1 {
		t.Fatalf("expected download count 1, got %d", got.DownloadCount)
	}
	if got.LastAccessed == nil || !got.LastAccessed.Equal(at) {
		t.Fatalf("expected last_accessed %v, got %v", at, got.LastAccessed)
	}

	found, err = st.RecordFileAccess(ctx, "fl-ghost0", at)
	if err != nil {
		t.Fatalf("record access missing: %v", err)
	}
	if found {
		t.Fatal("expected missing record")
	}
}

func TestDeleteFileWithUsage(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testSpace(t, st, "sp-dfu000")
	testSpace(t, st, "sp-dfu001")

	shared := "99aa88bb"
	insertTestFile(t, st, "fl-dfu000", "sp-dfu000", 30, shared)
	insertTestFile(t, st, "fl-dfu001", "sp-dfu001", 30, shared)
	if err := st.AddSpaceUsage(ctx, "sp-dfu000", 30); err != nil {
		t.Fatalf("add usage: %v", err)
	}
	if err := st.AddSpaceUsage(ctx, "sp-dfu001", 30); err != nil {
		t.Fatalf("add usage: %v", err)
	}

	removed, remaining, err := st.DeleteFileWithUsage(ctx, "fl-dfu000")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed == nil || removed.ID != "fl-dfu000" {
		t.Fatalf("expected removed record, got %+v", removed)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining reference, got %d", remaining)
	}

	space, err := st.GetSpace(ctx, "sp-dfu000")
	if err != nil {
		t.Fatalf("get space: %v", err)
	}
	if space.TotalSizeUsedBytes != 0 {
		t.Fatalf("expected usage 0 after delete, got %d", space.TotalSizeUsedBytes)
	}

	// Second delete of the same id reports absence without touching usage.
	removed, _, err = st.DeleteFileWithUsage(ctx, "fl-dfu000")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if removed != nil {
		t.Fatalf("expected nil on second delete, got %+v", removed)
	}

	removed, remaining, err = st.DeleteFileWithUsage(ctx, "fl-dfu001")
	if err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if removed == nil || remaining != 0 {
		t.Fatalf("expected last reference removed, got %+v remaining=%d", removed, remaining)
	}
}

func TestGenerateIDs(t *testing.T) {
	id, err := GenerateSpaceID(nil)
	if err != nil {
		t.Fatalf("generate space id: %v", err)
	}
	if len(id) != len("sp-")+idHashLength || id[:3] != "sp-" {
		t.Fatalf("unexpected space id %q", id)
	}

	// A collision forces a retry until exists reports false.
	calls := 0
	id, err = GenerateFileID(func(string) (bool, error) {
		calls++
		return calls == 1, nil
	})
	if err != nil {
		t.Fatalf("generate file id: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if id[:3] != "fl-" {
		t.Fatalf("unexpected file id %q", id)
	}
}
