// Package client is a Go client for the lograg HTTP API.
//
//	c, _ := client.New("http://localhost:8080",
//	    client.WithTenant("proj-1", "user-1"),
//	    client.WithAPIKey(os.Getenv("LOGRAG_API_KEY")),
//	)
//	_, _ = c.Index(ctx, "app.log", text, "", false)
//	ans, _ := c.Ask(ctx, client.Query{Question: "What failed last night?"})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultTimeout = 2 * time.Minute

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	apiKey     string
	projectID  string
	userID     string
	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = hc })
}

// WithAPIKey sends the key as a Bearer token.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) { c.apiKey = key })
}

// WithTenant sets the project and user every request is scoped to.
func WithTenant(projectID, userID string) Option {
	return optionFunc(func(c *clientConfig) {
		c.projectID = projectID
		c.userID = userID
	})
}

// WithLogger logs failed calls at error level and successful ones at debug.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = l })
}

// WithMetrics registers client request metrics in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) { c.metricsReg = reg })
}

// Client talks to one lograg server on behalf of one tenant. Safe for concurrent use.
type Client struct {
	base *url.URL
	cfg  clientConfig
	obs  *observer
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("lograg: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("lograg: base url must be http or https, got %q", baseURL)
	}

	cfg := clientConfig{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, o := range opts {
		o.apply(&cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{base: u, cfg: cfg, obs: obs}, nil
}

// WithTenant returns a copy of the client scoped to another tenant.
func (c *Client) WithTenant(projectID, userID string) *Client {
	cp := *c
	cp.cfg.projectID = projectID
	cp.cfg.userID = userID
	return &cp
}

// Index indexes or re-indexes a document. format may be empty for auto-detection.
func (c *Client) Index(ctx context.Context, id, text, format string, dryRun bool) (IndexAck, error) {
	var ack IndexAck
	q := url.Values{}
	if dryRun {
		q.Set("dry_run", "true")
	}
	err := c.do(ctx, "index", http.MethodPut, "/v1/documents/"+url.PathEscape(id), q,
		indexRequest{Text: text, Format: format}, &ack)
	return ack, err
}

// Append indexes text that continues document id after lineOffset lines.
func (c *Client) Append(ctx context.Context, id, text, format string, lineOffset int) (IndexAck, error) {
	var ack IndexAck
	q := url.Values{"line_offset": {strconv.Itoa(lineOffset)}}
	err := c.do(ctx, "append", http.MethodPost, "/v1/documents/"+url.PathEscape(id)+"/append", q,
		indexRequest{Text: text, Format: format}, &ack)
	return ack, err
}

// IndexBatch indexes several documents. Per-document failures are reported in
// the result, not as an error.
func (c *Client) IndexBatch(ctx context.Context, docs []Document, dryRun bool) (BatchResult, error) {
	var res BatchResult
	q := url.Values{}
	if dryRun {
		q.Set("dry_run", "true")
	}
	err := c.do(ctx, "index_batch", http.MethodPost, "/v1/documents/batch", q, batchRequest{Documents: docs}, &res)
	return res, err
}

// Delete removes a document and returns how many records were dropped.
func (c *Client) Delete(ctx context.Context, id string) (int, error) {
	var res deleteResponse
	err := c.do(ctx, "delete", http.MethodDelete, "/v1/documents/"+url.PathEscape(id), nil, nil, &res)
	return res.Deleted, err
}

// Ask runs the RAG pipeline.
func (c *Client) Ask(ctx context.Context, q Query) (Answer, error) {
	var ans Answer
	err := c.do(ctx, "ask", http.MethodPost, "/v1/query", nil, q, &ans)
	return ans, err
}

// Search returns ranked chunks without an answer. limit <= 0 uses the query's max_chunks.
func (c *Client) Search(ctx context.Context, q Query, limit int) ([]Source, error) {
	var res searchResponse
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	err := c.do(ctx, "search", http.MethodPost, "/v1/search", params, q, &res)
	return res.Results, err
}

// Clear removes everything the tenant has indexed.
func (c *Client) Clear(ctx context.Context) (int, error) {
	var res deleteResponse
	err := c.do(ctx, "clear", http.MethodDelete, "/v1/tenant", nil, nil, &res)
	return res.Deleted, err
}

// Stats describes the tenant's index.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.do(ctx, "stats", http.MethodGet, "/v1/stats", nil, nil, &st)
	return st, err
}

// Health returns the server health report. A degraded server is not an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &h)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && h.Status != "" {
		return h, nil
	}
	return h, err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	defer func(start time.Time) { c.obs.observe(op, start, err) }(time.Now())

	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("lograg: encode %s request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("lograg: build %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.apiKey)
	}
	if c.cfg.projectID != "" {
		req.Header.Set("X-Project-ID", c.cfg.projectID)
	}
	if c.cfg.userID != "" {
		req.Header.Set("X-User-ID", c.cfg.userID)
	}

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lograg: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("lograg: read %s response: %w", op, err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Code == "" {
			apiErr.Code = "http_error"
			apiErr.Message = strings.TrimSpace(string(data))
		}
		// health reports its body with 503
		if out != nil && resp.StatusCode == http.StatusServiceUnavailable {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("lograg: decode %s response: %w", op, err)
	}
	return nil
}
