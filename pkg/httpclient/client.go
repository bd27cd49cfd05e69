// Package httpclient wraps net/http with structured request/response
// logging for API tests: sensitive values are masked, bodies are truncated
// to a byte budget, and each exchange is recorded as an attachment in the
// active execution via the standard attachment primitive.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ormasoftchile/qago/pkg/record"
)

// DefaultMaxLogSize caps logged request/response bodies, in bytes.
const DefaultMaxLogSize = 1024

// streamingContentTypes are never read for logging.
var streamingContentTypes = []string{
	"application/octet-stream",
	"video/",
	"audio/",
	"image/",
	"application/zip",
	"application/gzip",
	"text/event-stream",
	"multipart/form-data",
}

// Client is an http.Client wrapper for API testing. Every request is
// performed normally and then logged: URL (query params masked), headers
// (sensitive ones masked), and bodies (masked and truncated). The rendered
// exchange is attached to the execution carried by the request context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger

	maxLogSize          int
	maskSensitive       bool
	sensitiveHeaders    map[string]struct{}
	sensitiveJSONFields map[string]struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxLogSize sets the logged-body byte budget.
func WithMaxLogSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxLogSize = n
		}
	}
}

// WithMasking toggles sensitive-data masking.
func WithMasking(enabled bool) Option {
	return func(c *Client) { c.maskSensitive = enabled }
}

// WithSensitiveHeaders replaces the default masked header set.
func WithSensitiveHeaders(names ...string) Option {
	return func(c *Client) { c.sensitiveHeaders = lowerSet(names) }
}

// WithSensitiveJSONFields replaces the default masked JSON field set.
func WithSensitiveJSONFields(names ...string) Option {
	return func(c *Client) { c.sensitiveJSONFields = lowerSet(names) }
}

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client. baseURL may be empty; relative request paths are
// resolved against it.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:          &http.Client{Timeout: 10 * time.Second},
		baseURL:             strings.TrimRight(baseURL, "/"),
		logger:              zap.NewNop(),
		maxLogSize:          DefaultMaxLogSize,
		maskSensitive:       true,
		sensitiveHeaders:    lowerSet(defaultSensitiveHeaders),
		sensitiveJSONFields: lowerSet(defaultSensitiveJSONFields),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, "")
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, "")
}

// PostJSON issues a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, path, payload, "application/json")
}

// PutJSON issues a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	return c.Request(ctx, http.MethodPut, path, payload, "application/json")
}

// Request issues an arbitrary request. body may be nil.
func (c *Client) Request(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(req, body)
}

// Do performs a prepared request and logs the exchange. reqBody is the
// request payload for logging; pass nil when the request has no body or the
// caller does not want it logged.
func (c *Client) Do(req *http.Request, reqBody []byte) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("request failed", zap.String("url", c.sanitizeURL(req.URL)), zap.Error(err))
		record.Attach(req.Context(),
			fmt.Sprintf("%s %s\nerror: %v", req.Method, c.sanitizeURL(req.URL), err),
			fmt.Sprintf("HTTP %s (failed)", req.Method))
		return nil, err
	}

	c.logExchange(req, reqBody, resp, elapsed)
	return resp, nil
}

func (c *Client) logExchange(req *http.Request, reqBody []byte, resp *http.Response, elapsed time.Duration) {
	sanitizedURL := c.sanitizeURL(resp.Request.URL)
	c.logger.Info("request made",
		zap.String("url", sanitizedURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", req.Method, sanitizedURL)
	fmt.Fprintf(&b, "request headers: %s\n", formatHeaders(c.sanitizeHeaders(req.Header)))
	fmt.Fprintf(&b, "request body: %s\n", c.renderBody(reqBody))
	fmt.Fprintf(&b, "status: %d\n", resp.StatusCode)
	fmt.Fprintf(&b, "time: %.3f s\n", elapsed.Seconds())
	fmt.Fprintf(&b, "response headers: %s\n", formatHeaders(c.sanitizeHeaders(resp.Header)))
	fmt.Fprintf(&b, "response body: %s", c.responsePreview(resp))

	label := fmt.Sprintf("HTTP %s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	record.Attach(req.Context(), b.String(), label)
}

// renderBody masks and truncates a request payload for logging.
func (c *Client) renderBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	return c.sanitizeBody(c.truncateContent(body))
}

// truncateContent cuts content to the log budget, noting the original size.
func (c *Client) truncateContent(content []byte) string {
	if len(content) > c.maxLogSize {
		return fmt.Sprintf("%s... <truncated, total size: %d bytes>", content[:c.maxLogSize], len(content))
	}
	return string(content)
}

// responsePreview reads a bounded preview of the response body and restores
// it so the caller can still consume it. Large and streaming responses are
// summarized instead of read.
func (c *Client) responsePreview(resp *http.Response) string {
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if length, err := strconv.Atoi(cl); err == nil && length > c.maxLogSize*10 {
			return fmt.Sprintf("<large response body - %d bytes - not logged>", length)
		}
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	for _, st := range streamingContentTypes {
		if strings.Contains(contentType, st) {
			return fmt.Sprintf("<streaming content type %q - not logged>", contentType)
		}
	}

	if resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return fmt.Sprintf("<error reading response - %v>", err)
	}
	return c.sanitizeBody(c.truncateContent(data))
}

func (c *Client) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("relative path %q with no base URL", path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if _, err := url.Parse(c.baseURL + path); err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return c.baseURL + path, nil
}
