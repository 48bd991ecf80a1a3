package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDownloadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"fit","start_time":0,"end_time":1}]`))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "scenes.json")
	client := NewClient(5 * time.Second)
	if err := client.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("downloaded file is empty")
	}
}

func TestDownloadStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "scenes.json")
	client := NewClient(5 * time.Second)
	err := client.Download(context.Background(), server.URL, dest)
	if err == nil {
		t.Fatal("expected status error")
	}
	if !NotFound(err) {
		t.Fatalf("expected 404 classification, got %v", err)
	}
}

func TestDownloadLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.json")
	if err := os.WriteFile(src, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	dest := filepath.Join(dir, "copy.json")
	client := NewClient(time.Second)
	if err := client.Download(context.Background(), "file://"+src, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("stat copy: %v", err)
	}
}

func TestDownloadRejectsUnknownScheme(t *testing.T) {
	client := NewClient(time.Second)
	err := client.Download(context.Background(), "ftp://example.com/x", filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}
