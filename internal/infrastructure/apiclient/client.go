// Package apiclient is the single HTTP gateway to the mapmate backend. It
// attaches the session's bearer token to every request and turns failures
// into *Error values carrying a user-facing message.
//
// There are no retries, no client-side timeout, and no caching: each call is
// one fresh round trip, cancelable only through its context.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bobvengers/mapmate/internal/infrastructure/logger"
	"github.com/bobvengers/mapmate/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/bobvengers/mapmate/internal/infrastructure/apiclient"

// TokenSource yields the bearer token for outgoing requests. An empty token
// means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// Config configures the gateway
type Config struct {
	BaseURL   string
	UserAgent string
	Headers   map[string]string
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder records every request into r
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTracerProvider uses tp instead of the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// WithTokenSource sets the bearer token source
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// Client is the API gateway client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	logger     *zap.Logger
	recorder   *metrics.Recorder
	tracer     trace.Tracer

	mu     sync.RWMutex
	tokens TokenSource
}

// New creates a gateway client for cfg.BaseURL
func New(cfg Config, log *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		// No Timeout: requests end when the server answers or ctx is cancelled.
		httpClient: &http.Client{},
		baseURL:    base,
		headers:    make(map[string]string),
		logger:     log.Named("api"),
		tracer:     otel.Tracer(tracerName),
	}

	c.headers["Content-Type"] = "application/json"
	c.headers["Accept"] = "application/json"
	c.headers["User-Agent"] = "mapmate/1.0"
	if cfg.UserAgent != "" {
		c.headers["User-Agent"] = cfg.UserAgent
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource swaps the bearer token source. The session service registers
// itself here once constructed.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Response represents a 2xx HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	RequestID  string
}

// Do executes one request. Any non-2xx status yields a KindServerRejected
// *Error; a transport failure yields KindUnreachable.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	endpoint := routeOf(u.Path)
	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, c.logger, requestID)

	ctx, span := c.tracer.Start(ctx, req.Method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", u.Path),
			attribute.String("http.route", endpoint),
		),
	)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	c.setHeaders(httpReq, req.Headers)
	httpReq.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		duration := time.Since(start)
		c.observe(req.Method, endpoint, 0, metrics.OutcomeUnreachable, duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreachable")
		logger.L(ctx).Debug("api request failed",
			zap.String("method", req.Method),
			zap.String("path", u.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, unreachable(req.Method, u.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		c.observe(req.Method, endpoint, httpResp.StatusCode, metrics.OutcomeUnreachable, duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reading body")
		return nil, unreachable(req.Method, u.Path, fmt.Errorf("reading response body: %w", err))
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	logger.L(ctx).Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", u.Path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("bytes", len(body)),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.observe(req.Method, endpoint, httpResp.StatusCode, metrics.OutcomeRejected, duration)
		span.SetStatus(codes.Error, http.StatusText(httpResp.StatusCode))
		return nil, rejected(req.Method, u.Path, httpResp.StatusCode, body)
	}

	c.observe(req.Method, endpoint, httpResp.StatusCode, metrics.OutcomeOK, duration)
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   duration,
		RequestID:  requestID,
	}, nil
}

// JSON executes req and decodes a non-empty response body into out. A nil
// out discards the body.
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.JSON(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.JSON(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.JSON(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.JSON(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.JSON(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// buildURL builds a complete URL from path and query parameters.
func (c *Client) buildURL(path string, query map[string]string) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := c.baseURL.Parse(strings.TrimSuffix(c.baseURL.Path, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// setHeaders applies default, per-request, and auth headers.
func (c *Client) setHeaders(req *http.Request, custom map[string]string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range custom {
		req.Header.Set(k, v)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) observe(method, endpoint string, status int, outcome string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveRequest(method, endpoint, status, outcome, d)
	}
}

// routeOf collapses ids and nicknames in a path so metric labels stay bounded.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		switch {
		case p == "":
		case isDigits(p):
			parts[i] = ":id"
		case i > 0 && parts[i-1] == "creator-nickname":
			parts[i] = ":nickname"
		}
	}
	return strings.Join(parts, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
