// Package fetch downloads job inputs (scene documents) into the staging area.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// maxDocumentBytes caps scene document downloads; scene lists are small and a
// runaway response should not fill the staging volume.
const maxDocumentBytes = 32 << 20

// Client downloads remote artifacts over HTTP. file:// URLs are resolved
// locally, which keeps tests and the one-shot CLI path hermetic.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a downloader with the given timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download fetches rawURL into destPath, creating or truncating the file.
func (c *Client) Download(ctx context.Context, rawURL, destPath string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("fetch: parse url: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		return c.downloadHTTP(ctx, rawURL, destPath)
	case "file":
		return copyLocal(parsed.Path, destPath)
	case "":
		return copyLocal(rawURL, destPath)
	default:
		return fmt.Errorf("fetch: unsupported scheme %q", parsed.Scheme)
	}
}

func (c *Client) downloadHTTP(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", destPath, err)
	}
	defer out.Close()

	limited := io.LimitReader(resp.Body, maxDocumentBytes+1)
	written, err := io.Copy(out, limited)
	if err != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("fetch: copy body: %w", err)
	}
	if written > maxDocumentBytes {
		_ = os.Remove(destPath)
		return fmt.Errorf("fetch: %s exceeds %d byte limit", rawURL, int64(maxDocumentBytes))
	}
	return out.Close()
}

func copyLocal(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fetch: open local source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("fetch: copy local source: %w", err)
	}
	return out.Close()
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.StatusCode)
}

// NotFound reports whether the error is an HTTP 404.
func NotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
