// Package scheduler is the HTTP client for the external process
// scheduler that runs pipeline jobs on behalf of this backend.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autobahn/internal/logging"
)

// ErrNotConfigured is returned when no scheduler host is set.
var ErrNotConfigured = errors.New("process scheduler host not configured")

// StatusError carries a non-2xx upstream response so handlers can
// forward the scheduler's own status code and body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scheduler returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	base string
	hc   *http.Client
}

// NewClient builds a client against host (scheme://host[:port]); the
// scheduler's API lives under /api/v1.
func NewClient(host string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base: strings.TrimRight(host, "/") + "/api/v1",
		hc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) configured() bool {
	return !strings.HasPrefix(c.base, "/")
}

type StartJobRequest struct {
	PipelineID string         `json:"pipeline_id"`
	Queue      string         `json:"queue"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CreatePipelineRequest struct {
	PipelineName string
	YAMLContent  string
	// Files maps form field names to local file paths uploaded with
	// the pipeline definition.
	Files map[string]string
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body io.Reader, contentType string) (map[string]any, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logging.L.Debugw("scheduler request", "method", method, "path", path)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scheduler request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode scheduler response: %w", err)
		}
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, token, method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, token, method, path, nil, body, "application/json")
}

func (c *Client) ListJobs(ctx context.Context, token string, params url.Values) (map[string]any, error) {
	return c.do(ctx, token, http.MethodGet, "/jobs", params, nil, "")
}

func (c *Client) StartJob(ctx context.Context, token string, req StartJobRequest) (map[string]any, error) {
	return c.doJSON(ctx, token, http.MethodPost, "/jobs", req)
}

func (c *Client) StopJob(ctx context.Context, token, jobID string) (map[string]any, error) {
	return c.do(ctx, token, http.MethodPost, "/jobs/"+url.PathEscape(jobID)+"/stop", nil, nil, "")
}

func (c *Client) DeleteJob(ctx context.Context, token, jobID string) (map[string]any, error) {
	return c.do(ctx, token, http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil, nil, "")
}

func (c *Client) ListPipelines(ctx context.Context, token string, params url.Values) (map[string]any, error) {
	return c.do(ctx, token, http.MethodGet, "/pipelines", params, nil, "")
}

func (c *Client) PipelineDetail(ctx context.Context, token, pipelineID string) (map[string]any, error) {
	return c.do(ctx, token, http.MethodGet, "/pipelines/"+url.PathEscape(pipelineID), nil, nil, "")
}

func (c *Client) DeletePipeline(ctx context.Context, token, pipelineID string) (map[string]any, error) {
	return c.do(ctx, token, http.MethodDelete, "/pipelines/"+url.PathEscape(pipelineID), nil, nil, "")
}

// CreatePipeline uploads the pipeline definition as a multipart form:
// name and yaml_str fields plus any attached files.
func (c *Client) CreatePipeline(ctx context.Context, token string, req CreatePipelineRequest) (map[string]any, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", req.PipelineName); err != nil {
		return nil, err
	}
	if err := w.WriteField("yaml_str", req.YAMLContent); err != nil {
		return nil, err
	}

	for field, path := range req.Files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("pipeline file %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("pipeline file %s is a directory", path)
		}

		part, err := w.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return c.do(ctx, token, http.MethodPost, "/pipelines", nil, &buf, w.FormDataContentType())
}
