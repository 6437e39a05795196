package download_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"renderlane/internal/download"
)

func TestFetchWritesArtifact(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "video-bytes")
	}))
	t.Cleanup(server.Close)

	destDir := t.TempDir()
	d := download.NewDownloader(nil)
	path, err := d.Fetch(context.Background(), server.URL+"/video.mp4", destDir, "clip", "job_1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(destDir, "clip.mp4") {
		t.Fatalf("unexpected destination %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestFetchNeverOverwrites(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "new")
	}))
	t.Cleanup(server.Close)

	destDir := t.TempDir()
	existing := filepath.Join(destDir, "foo.mp4")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed existing: %v", err)
	}

	d := download.NewDownloader(nil)
	path, err := d.Fetch(context.Background(), server.URL+"/anything.mp4", destDir, "foo", "job_1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(destDir, "foo_1.mp4") {
		t.Fatalf("expected foo_1.mp4, got %q", path)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "old" {
		t.Fatal("existing file was clobbered")
	}
}

func TestFetchFallsBackToJobID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "x")
	}))
	t.Cleanup(server.Close)

	destDir := t.TempDir()
	d := download.NewDownloader(nil)
	path, err := d.Fetch(context.Background(), server.URL+"/v.mp4", destDir, "???", "job_9")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(path) != "job_9.mp4" {
		t.Fatalf("expected job id fallback, got %q", path)
	}
}

func TestFetchNonOKStatusFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	d := download.NewDownloader(nil)
	_, err := d.Fetch(context.Background(), server.URL+"/v.mp4", t.TempDir(), "clip", "j")
	if !errors.Is(err, download.ErrDownload) {
		t.Fatalf("expected ErrDownload, got %v", err)
	}
}

func TestSanitizeBaseName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"clip":            "clip",
		"my clip (v2)":    "my_clip_v2",
		"../../etc/pass":  "etcpass",
		"???":             "",
		"  trimmed.name ": "trimmed.name",
	}
	for input, want := range cases {
		if got := download.SanitizeBaseName(input); got != want {
			t.Errorf("SanitizeBaseName(%q) = %q, want %q", input, got, want)
		}
	}
}
