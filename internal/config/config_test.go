package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPACES_CONFIG_DIR", t.TempDir())
	t.Setenv("SPACES_API_URL", "")
	t.Setenv("SPACES_DB", "")
	t.Setenv("SPACES_BLOB_ROOT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.DBPath == "" {
		t.Fatal("expected db path default")
	}
	if cfg.Uploads.MaxUploadBytes != DefaultUploadMaxBytes {
		t.Fatalf("expected default upload limit, got %d", cfg.Uploads.MaxUploadBytes)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPACES_CONFIG_DIR", dir)
	t.Setenv("SPACES_API_URL", "")
	t.Setenv("SPACES_BLOB_ROOT", "")

	content := "api_url = \"http://127.0.0.1:9999\"\ndb_path = \"/tmp/from-file.db\"\n\n[uploads]\nmax_upload_bytes = 1024\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected file api url, got %q", cfg.APIURL)
	}
	if cfg.Uploads.MaxUploadBytes != 1024 {
		t.Fatalf("expected file upload limit, got %d", cfg.Uploads.MaxUploadBytes)
	}

	t.Setenv("SPACES_DB", "/tmp/from-env.db")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.DBPath != "/tmp/from-env.db" {
		t.Fatalf("env override ignored: %q", cfg.DBPath)
	}
}

func TestEffectiveBlobRoot(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "/data/app/.spaces.db"
	if got := cfg.EffectiveBlobRoot(); got != filepath.Join("/data/app", ".spaces", "blobs") {
		t.Fatalf("unexpected blob root %q", got)
	}

	cfg.BlobRoot = "/blobs"
	if got := cfg.EffectiveBlobRoot(); got != "/blobs" {
		t.Fatalf("explicit blob root ignored: %q", got)
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)

	if err := SetKey(path, "api_url", "http://localhost:7000"); err != nil {
		t.Fatalf("set api_url: %v", err)
	}
	if err := SetKey(path, "uploads.max_upload_bytes", "2048"); err != nil {
		t.Fatalf("set nested: %v", err)
	}
	if err := SetKey(path, "bogus", "x"); err == nil {
		t.Fatal("unknown key accepted")
	}
	if err := SetKey(path, "uploads.max_upload_bytes", "-5"); err == nil {
		t.Fatal("negative limit accepted")
	}

	t.Setenv("SPACES_CONFIG_DIR", filepath.Dir(path))
	t.Setenv("SPACES_API_URL", "")
	t.Setenv("SPACES_DB", "")
	t.Setenv("SPACES_BLOB_ROOT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:7000" {
		t.Fatalf("expected written api url, got %q", cfg.APIURL)
	}
	if cfg.Uploads.MaxUploadBytes != 2048 {
		t.Fatalf("expected written limit, got %d", cfg.Uploads.MaxUploadBytes)
	}
}
