// Package api provides the client for the marketplace REST backend.
//
// Every outgoing request passes through the client's request editors. The
// default editor attaches "Authorization: Bearer <token>" when the request
// context carries a session token (see WithToken).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/logging"
	"github.com/bidzilla/bidzilla-web/pkg/metrics"
	"github.com/bidzilla/bidzilla-web/pkg/retry"
)

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// RequestEditor mutates an outgoing request before it is sent.
type RequestEditor func(ctx context.Context, req *http.Request) error

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRequestEditor appends an editor that runs after the bearer editor.
func WithRequestEditor(fn RequestEditor) Option {
	return func(c *Client) { c.editors = append(c.editors, fn) }
}

// WithReadRetries enables retries of GET requests on transient failures.
func WithReadRetries(n int) Option {
	return func(c *Client) { c.readRetry = retry.DefaultConfig().WithMaxRetries(n) }
}

// Client provides access to the marketplace backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	editors    []RequestEditor
	readRetry  *retry.Config
	logger     *zap.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: must be an absolute http(s) URL", baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		editors:    []RequestEditor{BearerToken},
		readRetry:  retry.DefaultConfig(),
		logger:     logger.Named("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reachable reports whether the backend answers HTTP at all. Any response,
// including an error status, counts as reachable.
func (c *Client) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	resp.Body.Close()
	return nil
}

// Get issues a GET and decodes the JSON response into out.
// Transient failures are retried when read retries are enabled.
func (c *Client) Get(ctx context.Context, op, p string, out any) error {
	_, err := retry.DoWithResult(ctx, c.readRetry, func() (int, error) {
		return c.do(ctx, op, http.MethodGet, p, nil, "", out)
	})
	return err
}

// Post issues a JSON POST and decodes the response into out (may be nil).
// It returns the response status code.
func (c *Client) Post(ctx context.Context, op, p string, in, out any) (int, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return 0, err
	}
	return c.do(ctx, op, http.MethodPost, p, body, "application/json", out)
}

// Put issues a JSON PUT and decodes the response into out (may be nil).
func (c *Client) Put(ctx context.Context, op, p string, in, out any) (int, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return 0, err
	}
	return c.do(ctx, op, http.MethodPut, p, body, "application/json", out)
}

// FilePart is a file attached to a multipart request.
type FilePart struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// PostMultipart issues a multipart/form-data POST with the given fields and file.
func (c *Client) PostMultipart(ctx context.Context, op, p string, fields map[string]string, file FilePart, out any) (int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return 0, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	fw, err := w.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return 0, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(fw, file.Content); err != nil {
		return 0, fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.do(ctx, op, http.MethodPost, p, &buf, w.FormDataContentType(), out)
}

// do executes a single request and decodes a 2xx JSON body into out. An out
// of type *[]byte receives the body undecoded.
// Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, op, method, p string, body io.Reader, contentType string, out any) (int, error) {
	endpoint, err := buildURL(c.baseURL, p)
	if err != nil {
		return 0, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for _, edit := range c.editors {
		if err := edit(ctx, req); err != nil {
			return 0, fmt.Errorf("request editor failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(op, 0, time.Since(start))
		c.logger.Warn("Backend request failed",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.String("error", logging.SanitizeError(err)))
		return 0, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.RecordBackendRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		c.logger.Info("Backend returned error",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.SanitizeBody(respBody)))
		return resp.StatusCode, apiErr
	}

	c.logger.Debug("Backend request",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if raw, ok := out.(*[]byte); ok {
		*raw = respBody
		return resp.StatusCode, nil
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return resp.StatusCode, nil
}

func encodeJSON(in any) (io.Reader, error) {
	if in == nil {
		return bytes.NewReader([]byte("{}")), nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
