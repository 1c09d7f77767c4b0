package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"spaces/internal/api"
	"spaces/internal/blobstore"
	"spaces/internal/models"
	"spaces/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blobstore.NewLocalStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}

	srv := New("127.0.0.1:0", st, blobs, filepath.Join(dir, "catalog.db"), nil)
	ts := httptest.NewServer(srv.withRequestLogging(srv.routes()))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func uploadViaHTTP(t *testing.T, baseURL, spaceID, accessCode string, names []string, payloads []string) (*http.Response, []models.SpaceFile) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, name := range names {
		w, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := w.Write([]byte(payloads[i])); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/spaces/"+spaceID+"/files", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accessCode != "" {
		req.Header.Set("X-Access-Code", accessCode)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var files []models.SpaceFile
	if resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
			t.Fatalf("decode upload response: %v", err)
		}
	}
	return resp, files
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:6570")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:6570" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		if _, err := ListenAddr("http://0.0.0.0:6570"); err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:6570")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:6570" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestHealthAndInfo(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.StatusCode)
	}

	var info api.InfoResponse
	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/info", nil, &info)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info: expected 200, got %d", resp.StatusCode)
	}
	if info.SchemaVersion < 1 {
		t.Fatalf("expected schema version >= 1, got %d", info.SchemaVersion)
	}
	if info.SpaceCount != 0 || info.FileCount != 0 {
		t.Fatalf("fresh catalog should be empty, got %d spaces / %d files", info.SpaceCount, info.FileCount)
	}
}

func TestSpaceLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var created models.Space
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/spaces", api.SpaceCreateRequest{Name: "drop zone", Description: "shared uploads"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	if created.ID == "" || created.Name != "drop zone" {
		t.Fatalf("unexpected created space: %+v", created)
	}
	if created.HasAccessCode {
		t.Fatal("space without code reports has_access_code")
	}

	var listed []models.Space
	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/spaces", nil, &listed)
	if resp.StatusCode != http.StatusOK || len(listed) != 1 {
		t.Fatalf("list: expected 1 space, got status %d len %d", resp.StatusCode, len(listed))
	}

	newName := "renamed zone"
	var updated models.Space
	resp = doJSON(t, http.MethodPatch, ts.URL+"/v1/spaces/"+created.ID, api.SpaceUpdateRequest{Name: &newName}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	if updated.Name != newName || updated.Description != "shared uploads" {
		t.Fatalf("partial update went wrong: %+v", updated)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/spaces/"+created.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/spaces/"+created.ID, nil, &errResp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
	if errResp.ErrorCode != ErrCodeSpaceNotFound {
		t.Fatalf("expected error_code %d, got %d", ErrCodeSpaceNotFound, errResp.ErrorCode)
	}
	if errResp.ErrorID == "" {
		t.Fatal("error response is missing error_id")
	}
}

func TestUploadDownloadDeleteOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var space models.Space
	doJSON(t, http.MethodPost, ts.URL+"/v1/spaces", api.SpaceCreateRequest{Name: "files"}, &space)

	resp, files := uploadViaHTTP(t, ts.URL, space.ID, "", []string{"hello.txt"}, []string{"hello over http"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", resp.StatusCode)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(files))
	}
	if files[0].OriginalFilename != "hello.txt" {
		t.Fatalf("unexpected filename %q", files[0].OriginalFilename)
	}

	dl, err := http.Get(ts.URL + "/v1/files/" + files[0].ID + "/download")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", dl.StatusCode)
	}
	if cd := dl.Header.Get("Content-Disposition"); cd != `attachment; filename=hello.txt` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	data, err := io.ReadAll(dl.Body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "hello over http" {
		t.Fatalf("payload mismatch: %q", string(data))
	}

	// A space still holding records refuses deletion.
	var errResp api.ErrorResponse
	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/spaces/"+space.ID, nil, &errResp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("delete non-empty space: expected 409, got %d", resp.StatusCode)
	}
	if errResp.ErrorCode != ErrCodeSpaceNotEmpty {
		t.Fatalf("expected error_code %d, got %d", ErrCodeSpaceNotEmpty, errResp.ErrorCode)
	}

	var removed models.SpaceFile
	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/files/"+files[0].ID, nil, &removed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete file: expected 200, got %d", resp.StatusCode)
	}
	if removed.ID != files[0].ID {
		t.Fatalf("unexpected removed record %q", removed.ID)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/spaces/"+space.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete emptied space: expected 200, got %d", resp.StatusCode)
	}
}

func TestAccessCodeOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var space models.Space
	doJSON(t, http.MethodPost, ts.URL+"/v1/spaces", api.SpaceCreateRequest{Name: "private", AccessCode: "sesame"}, &space)
	if !space.HasAccessCode {
		t.Fatal("space should report has_access_code")
	}

	resp, _ := uploadViaHTTP(t, ts.URL, space.ID, "", []string{"x.txt"}, []string{"x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("upload without code: expected 401, got %d", resp.StatusCode)
	}

	resp, files := uploadViaHTTP(t, ts.URL, space.ID, "sesame", []string{"x.txt"}, []string{"x"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload with code: expected 201, got %d", resp.StatusCode)
	}

	listResp := doJSON(t, http.MethodGet, ts.URL+"/v1/spaces/"+space.ID+"/files", nil, nil)
	if listResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("list without code: expected 401, got %d", listResp.StatusCode)
	}

	// The query parameter works for plain links.
	dl, err := http.Get(ts.URL + "/v1/files/" + files[0].ID + "/download?access_code=sesame")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download with query code: expected 200, got %d", dl.StatusCode)
	}
}

func TestInvalidIDsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{
		"/v1/spaces/not-an-id",
		"/v1/files/also-bad",
		"/v1/files/sp-abc123", // space id where a file id belongs
	} {
		var errResp api.ErrorResponse
		resp := doJSON(t, http.MethodGet, ts.URL+path, nil, &errResp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
		if errResp.ErrorCode != ErrCodeInvalidID {
			t.Fatalf("%s: expected error_code %d, got %d", path, ErrCodeInvalidID, errResp.ErrorCode)
		}
	}
}

func TestUploadRejectsNonMultipartBody(t *testing.T) {
	ts := newTestServer(t)

	var space models.Space
	doJSON(t, http.MethodPost, ts.URL+"/v1/spaces", api.SpaceCreateRequest{Name: "strict"}, &space)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/spaces/"+space.ID+"/files", map[string]string{"not": "multipart"}, &errResp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if errResp.ErrorCode != ErrCodeInvalidPart {
		t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidPart, errResp.ErrorCode)
	}
}
