// Package upstream implements the single outbound call every resolver makes:
// one GET to a third-party JSON API, decoded into a caller supplied value.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/cricwidget/gateway/internal/metrics"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client calls one upstream API. It never retries.
type Client struct {
	Name    string
	BaseURL string

	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client. hc itself is
// never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every call. Zero keeps the HTTP client default of no
// timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New returns a client for the API rooted at baseURL.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		Name:    name,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// GetJSON issues GET BaseURL+path?query and decodes the JSON body into out.
// A non-2xx answer yields an *Error.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: building request", c.Name)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(metrics.OutcomeTransport, start, path, 0)
		return errors.Wrapf(err, "%s: request failed", c.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(metrics.OutcomeHTTPError, start, path, resp.StatusCode)
		var body errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, &body)
		return &Error{Upstream: c.Name, StatusCode: resp.StatusCode, Message: body.text()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe(metrics.OutcomeDecode, start, path, resp.StatusCode)
		return errors.Wrapf(err, "%s: decoding response", c.Name)
	}
	c.observe(metrics.OutcomeOK, start, path, resp.StatusCode)
	return nil
}

func (c *Client) observe(outcome string, start time.Time, path string, status int) {
	d := time.Since(start)
	c.metrics.ObserveUpstream(c.Name, outcome, d)
	c.logger.Debug("upstream call",
		zap.String("upstream", c.Name),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("outcome", outcome),
		zap.Duration("duration", d),
	)
}
