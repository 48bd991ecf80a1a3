package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"reframe/internal/api"
)

func TestBuildSubmitRequestSingleExport(t *testing.T) {
	subtitlePath := filepath.Join(t.TempDir(), "subtitles.json")
	if err := os.WriteFile(subtitlePath, []byte(`{"subtitles_ass": ""}`), 0o644); err != nil {
		t.Fatalf("write subtitles: %v", err)
	}

	req, err := buildSubmitRequest(
		"https://cdn.example/video.mp4",
		"https://cdn.example/scenes.json",
		"https://account.blob.core.windows.net/clips/out.mp4",
		2, 8, subtitlePath, "9:16", "",
	)
	if err != nil {
		t.Fatalf("buildSubmitRequest: %v", err)
	}
	if req.Task != api.TaskExport {
		t.Fatalf("unexpected task %q", req.Task)
	}
	decoded, err := base64.StdEncoding.DecodeString(req.Subtitles)
	if err != nil {
		t.Fatalf("subtitles not base64: %v", err)
	}
	if string(decoded) != `{"subtitles_ass": ""}` {
		t.Fatalf("unexpected subtitle payload %q", decoded)
	}
}

func TestBuildSubmitRequestBatch(t *testing.T) {
	batchPath := filepath.Join(t.TempDir(), "batch.json")
	payload := `[
		{"video_url": "https://cdn.example/a.mp4", "scenes_url": "s", "destination_url": "d", "start": 0, "end": 3},
		{"video_url": "https://cdn.example/b.mp4", "scenes_url": "s", "destination_url": "d", "start": 1, "end": 4}
	]`
	if err := os.WriteFile(batchPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	req, err := buildSubmitRequest("", "", "", 0, 0, "", "", batchPath)
	if err != nil {
		t.Fatalf("buildSubmitRequest: %v", err)
	}
	if req.Task != api.TaskBatchExport {
		t.Fatalf("unexpected task %q", req.Task)
	}
	if len(req.Batch) != 2 {
		t.Fatalf("expected 2 batch entries, got %d", len(req.Batch))
	}
}

func TestBuildSubmitRequestEmptyBatchFile(t *testing.T) {
	batchPath := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(batchPath, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if _, err := buildSubmitRequest("", "", "", 0, 0, "", "", batchPath); err == nil {
		t.Fatal("expected error for empty batch file")
	}
}
