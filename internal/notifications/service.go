package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reframe/internal/config"
)

const userAgent = "Reframe-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyDaemonStarted(ctx context.Context, lanes int) error
	NotifyExportCompleted(ctx context.Context, jobUUID, destinationURL string) error
	NotifyExportFailed(ctx context.Context, jobUUID string, cause error) error
	NotifyExportReview(ctx context.Context, jobUUID, reason string) error
	NotifyBatchCompleted(ctx context.Context, batchID string, completed, failed int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by an ntfy-compatible
// webhook when configured. When no webhook URL is configured, a noop
// implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint:      endpoint,
		client:        &http.Client{Timeout: timeout},
		sendCompleted: cfg.Notifications.Completed,
		sendFailed:    cfg.Notifications.Failed,
		sendBatch:     cfg.Notifications.Batch,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type webhookService struct {
	endpoint      string
	client        *http.Client
	sendCompleted bool
	sendFailed    bool
	sendBatch     bool
}

func (w *webhookService) NotifyDaemonStarted(ctx context.Context, lanes int) error {
	data := payload{
		title:   "Reframe - Daemon Started",
		message: fmt.Sprintf("Processing exports with %d lanes", lanes),
		tags:    []string{"reframe", "daemon", "started"},
	}
	return w.send(ctx, data)
}

func (w *webhookService) NotifyExportCompleted(ctx context.Context, jobUUID, destinationURL string) error {
	if !w.sendCompleted {
		return nil
	}
	data := payload{
		title:   "Reframe - Export Complete",
		message: fmt.Sprintf("Export %s uploaded to %s", strings.TrimSpace(jobUUID), strings.TrimSpace(destinationURL)),
		tags:    []string{"reframe", "export", "completed"},
	}
	return w.send(ctx, data)
}

func (w *webhookService) NotifyExportFailed(ctx context.Context, jobUUID string, cause error) error {
	if !w.sendFailed {
		return nil
	}
	detail := "unknown"
	if cause != nil {
		detail = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Reframe - Export Failed",
		message:  fmt.Sprintf("Export %s failed: %s", strings.TrimSpace(jobUUID), detail),
		tags:     []string{"reframe", "export", "failed"},
		priority: "high",
	}
	return w.send(ctx, data)
}

func (w *webhookService) NotifyExportReview(ctx context.Context, jobUUID, reason string) error {
	if !w.sendFailed {
		return nil
	}
	data := payload{
		title:   "Reframe - Export Needs Review",
		message: fmt.Sprintf("Export %s parked for review: %s", strings.TrimSpace(jobUUID), strings.TrimSpace(reason)),
		tags:    []string{"reframe", "export", "review"},
	}
	return w.send(ctx, data)
}

func (w *webhookService) NotifyBatchCompleted(ctx context.Context, batchID string, completed, failed int) error {
	if !w.sendBatch {
		return nil
	}
	title := "Reframe - Batch Complete"
	message := fmt.Sprintf("Batch %s complete: %d exports uploaded", strings.TrimSpace(batchID), completed)
	if failed > 0 {
		title = "Reframe - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch %s complete: %d succeeded, %d failed", strings.TrimSpace(batchID), completed, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reframe", "batch", "completed"},
	}
	return w.send(ctx, data)
}

func (w *webhookService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reframe - Test",
		message:  "Notification system test",
		tags:     []string{"reframe", "test"},
		priority: "low",
	}
	return w.send(ctx, data)
}

func (w *webhookService) send(ctx context.Context, data payload) error {
	if w == nil || w.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDaemonStarted(context.Context, int) error               { return nil }
func (noopService) NotifyExportCompleted(context.Context, string, string) error  { return nil }
func (noopService) NotifyExportFailed(context.Context, string, error) error      { return nil }
func (noopService) NotifyExportReview(context.Context, string, string) error     { return nil }
func (noopService) NotifyBatchCompleted(context.Context, string, int, int) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
