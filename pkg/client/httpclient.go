package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HttpClient is a thin JSON client for the bookings API, used by tests and tooling.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// Headers are sent on every request, e.g. a fixed X-Request-ID.
	Headers map[string]string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Headers:    make(map[string]string),
	}
}

// Response keeps the fully read body next to the original response.
type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) ToString() string {
	return fmt.Sprintf("%d %s", r.StatusCode, string(r.Body))
}

// APIError mirrors the error envelope returned by the service.
type APIError struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

// DecodeError reads the error envelope of a non-2xx response.
func (r *Response) DecodeError() (*APIError, error) {
	var apiErr APIError
	if err := r.DecodeJSON(&apiErr); err != nil {
		return nil, fmt.Errorf("could not decode error response:\n%s\n%w", r.ToString(), err)
	}
	return &apiErr, nil
}

func (c *HttpClient) GET(path string) (*Response, error) {
	return c.send(http.MethodGet, path, nil, nil)
}

func (c *HttpClient) POST(path string, body any) (*Response, error) {
	return c.sendJSON(http.MethodPost, path, body, nil)
}

func (c *HttpClient) POSTWithHeaders(path string, body any, headers map[string]string) (*Response, error) {
	return c.sendJSON(http.MethodPost, path, body, headers)
}

// POSTRaw sends rawBody unchanged, for malformed-payload checks.
func (c *HttpClient) POSTRaw(path string, rawBody []byte) (*Response, error) {
	return c.send(http.MethodPost, path, rawBody, nil)
}

func (c *HttpClient) PUT(path string, body any) (*Response, error) {
	return c.sendJSON(http.MethodPut, path, body, nil)
}

func (c *HttpClient) PATCH(path string, body any) (*Response, error) {
	return c.sendJSON(http.MethodPatch, path, body, nil)
}

func (c *HttpClient) DELETE(path string) (*Response, error) {
	return c.send(http.MethodDelete, path, nil, nil)
}

func (c *HttpClient) sendJSON(method, path string, body any, headers map[string]string) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.send(method, path, data, headers)
}

func (c *HttpClient) send(method, path string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: respBody}, nil
}

// WaitForReady polls /ready until the service reports its storage reachable.
func (c *HttpClient) WaitForReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := c.GET("/ready")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service at %s not ready: %w", c.BaseURL, ctx.Err())
		case <-ticker.C:
		}
	}
}
