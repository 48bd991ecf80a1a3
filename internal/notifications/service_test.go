package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reframe/internal/config"
	"reframe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenWebhookMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.WebhookURL = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyExportCompleted(context.Background(), "abc", "https://example/clip.mp4"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		_ = r.Body.Close()
		w.WriteHeader(http.StatusOK)
	}))
}

func webhookConfig(url string) config.Config {
	cfg := config.Default()
	cfg.Notifications.WebhookURL = url
	cfg.Notifications.RequestTimeout = 5
	cfg.Notifications.Completed = true
	cfg.Notifications.Failed = true
	cfg.Notifications.Batch = true
	return cfg
}

func TestWebhookServiceFormatsPayloads(t *testing.T) {
	var captured capturedRequest
	server := captureServer(t, &captured)
	defer server.Close()

	cfg := webhookConfig(server.URL)
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyExportFailed(context.Background(), "job-42", errors.New("render exploded")); err != nil {
		t.Fatalf("NotifyExportFailed: %v", err)
	}
	if captured.title != "Reframe - Export Failed" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.body != "Export job-42 failed: render exploded" {
		t.Fatalf("unexpected body %q", captured.body)
	}
	if captured.priority != "high" {
		t.Fatalf("unexpected priority %q", captured.priority)
	}

	if err := svc.NotifyBatchCompleted(context.Background(), "batch-1", 3, 1); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if captured.title != "Reframe - Batch Complete (with errors)" {
		t.Fatalf("unexpected batch title %q", captured.title)
	}
	if captured.tags != "reframe,batch,completed" {
		t.Fatalf("unexpected tags %q", captured.tags)
	}
}

func TestWebhookServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := webhookConfig(server.URL)
	cfg.Notifications.Completed = false
	cfg.Notifications.Batch = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyExportCompleted(context.Background(), "job-1", "https://example/clip.mp4"); err != nil {
		t.Fatalf("suppressed completed event errored: %v", err)
	}
	if err := svc.NotifyBatchCompleted(context.Background(), "batch-1", 2, 0); err != nil {
		t.Fatalf("suppressed batch event errored: %v", err)
	}
}

func TestWebhookServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := webhookConfig(server.URL)
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
