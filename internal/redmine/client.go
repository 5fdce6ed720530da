package redmine

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/telemetry"
)

// Default timeouts
const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "redmine-mcp"

// Caller performs a single call against the remote API. Client implements it;
// tests substitute fakes.
type Caller interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// APIKey is sent as X-Redmine-API-Key. When empty, Username and Password
	// are sent as HTTP basic auth.
	APIKey   string
	Username string
	Password string

	UserAgent string
	// Timeout applies to JSON calls, UploadTimeout to binary ones.
	Timeout       time.Duration
	UploadTimeout time.Duration

	InsecureSkipVerify bool

	// HTTPClient overrides the underlying client. Its Timeout should be zero;
	// per-call deadlines are applied through the request context.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *telemetry.MetricsCollector
}

// Client is the Redmine transport. It is safe for concurrent use and holds
// no state beyond its fixed configuration.
type Client struct {
	base       string
	apiKey     string
	username   string
	password   string
	userAgent  string
	timeout    time.Duration
	uploadTime time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *telemetry.MetricsCollector
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errortypes.ConfigError(err, fmt.Sprintf("invalid Redmine URL %q", opts.BaseURL))
	}
	if opts.APIKey == "" && opts.Username == "" {
		return nil, errortypes.ConfigError(nil, "either an API key or a username is required")
	}

	c := &Client{
		base:       strings.TrimRight(u.String(), "/"),
		apiKey:     opts.APIKey,
		username:   opts.Username,
		password:   opts.Password,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		uploadTime: opts.UploadTimeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.uploadTime <= 0 {
		c.uploadTime = DefaultUploadTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in for self-signed servers
		}
		c.httpClient = &http.Client{Transport: transport}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// timeoutFor returns the deadline applied to req.
func (c *Client) timeoutFor(req *Request) time.Duration {
	if req.binary() {
		return c.uploadTime
	}
	return c.timeout
}

// Call sends req and returns the response for any 2xx status. Every other
// outcome is returned as an *errortypes.AppError.
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(req))
	defer cancel()

	httpReq, sent, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.metrics.IncrementCounter(telemetry.MetricHTTPRequests, 1)
	c.metrics.IncrementCounter(telemetry.MetricBytesSent, int64(sent))
	c.logger.Debug("redmine request", "method", req.Method, "path", req.Path, "query", req.Query.Encode(), "bytes", sent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.IncrementCounter(telemetry.MetricHTTPErrors, 1)
		return nil, transportError(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncrementCounter(telemetry.MetricHTTPErrors, 1)
		return nil, transportError(req, err)
	}

	elapsed := time.Since(start)
	c.metrics.RecordTimer(telemetry.MetricHTTPDuration, elapsed)
	c.metrics.IncrementCounter(telemetry.Name(telemetry.MetricHTTPStatus, resp.StatusCode), 1)
	c.metrics.IncrementCounter(telemetry.MetricBytesRecv, int64(len(body)))
	c.logger.Debug("redmine response", "method", req.Method, "path", req.Path,
		"status", resp.StatusCode, "bytes", len(body), "duration", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.IncrementCounter(telemetry.MetricHTTPErrors, 1)
		return nil, statusError(req, resp.StatusCode, body)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// newHTTPRequest builds the outbound request and reports the body size.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, int, error) {
	target := c.base + req.Path
	if !req.Raw {
		target += ".json"
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		payload     []byte
		contentType string
	)
	switch body := req.Body.(type) {
	case nil:
	case JSONBody:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body.Value); err != nil {
			return nil, 0, errortypes.InternalError(err, "failed to encode request body")
		}
		payload = bytes.TrimRight(buf.Bytes(), "\n")
		contentType = "application/json; charset=utf-8"
	case BinaryBody:
		payload = body.Data
		contentType = body.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	default:
		return nil, 0, errortypes.InternalError(nil, fmt.Sprintf("unsupported body type %T", body))
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, 0, errortypes.InternalError(err, fmt.Sprintf("failed to build %s", req))
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Raw {
		httpReq.Header.Set("Accept", "*/*")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		httpReq.Header.Set("X-Redmine-API-Key", c.apiKey)
	} else {
		httpReq.SetBasicAuth(c.username, c.password)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, len(payload), nil
}

// Ping checks connectivity and credentials with the cheapest authenticated call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, Get("/users/current", nil))
	return err
}
