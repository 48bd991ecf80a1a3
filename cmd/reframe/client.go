package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reframe/internal/api"
)

// daemonClient talks to the reframed HTTP API.
type daemonClient struct {
	base string
	http *http.Client
}

func newDaemonClient(address string) *daemonClient {
	address = strings.TrimSpace(address)
	if !strings.Contains(address, "://") {
		if strings.HasPrefix(address, ":") {
			address = "127.0.0.1" + address
		}
		address = "http://" + address
	}
	return &daemonClient{
		base: strings.TrimRight(address, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *daemonClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *daemonClient) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResponse, error) {
	var resp api.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs", req, &resp)
	return resp, err
}

func (c *daemonClient) List(ctx context.Context, statuses []string) ([]api.JobView, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		path += "?" + query.Encode()
	}
	var resp api.JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *daemonClient) Describe(ctx context.Context, id int64) (api.JobView, error) {
	var resp api.JobResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), nil, &resp)
	return resp.Job, err
}

func (c *daemonClient) Retry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/retry", id), nil, nil)
}

func (c *daemonClient) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", id), nil, nil)
}

func (c *daemonClient) ClearCompleted(ctx context.Context) (int64, error) {
	var resp struct {
		Removed int64 `json:"removed"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/jobs", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *daemonClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is reframed running?)", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return fmt.Errorf("daemon: %s", payload.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
