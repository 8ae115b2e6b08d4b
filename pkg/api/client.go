package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is a typed Go client for the booking backend REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	retryCfg       retry.Config
	tokens         TokenStore
	onUnauthorized func()
	logger         *zap.Logger
	observer       Observer
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           o.httpClient,
		timeout:        o.timeout,
		tokens:         o.tokens,
		onUnauthorized: o.onUnauthorized,
		logger:         o.logger,
		observer:       o.observer,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one REST call. body is already encoded so retries can
// resend it.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

type response struct {
	status int
	body   []byte
}

func jsonRequest(op, method, path string, in any) (request, error) {
	req := request{op: op, method: method, path: path}
	if in == nil {
		return req, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return req, fmt.Errorf("encode %s request: %w", op, err)
	}
	req.body = data
	req.contentType = "application/json"
	return req, nil
}

// call performs the request and decodes a 2xx body into out when out is
// non-nil.
func (c *Client) call(ctx context.Context, req request, out any) error {
	requestID := uuid.NewString()
	start := time.Now()

	t := timeout.New[*response](timeout.Config{DefaultTimeout: c.timeout})
	r := retry.New[*response](c.retryCfg)
	resp, err := t.Execute(ctx, c.timeout, func(ctx context.Context) (*response, error) {
		return r.Do(ctx, func(ctx context.Context) (*response, error) {
			return c.roundTrip(ctx, req, requestID)
		})
	})

	elapsed := time.Since(start)
	status := 0
	if resp != nil {
		status = resp.status
	}
	if c.observer != nil {
		c.observer.ObserveRequest(req.op, status, elapsed)
	}

	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", req.op),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return transportError(req.op, err)
	}

	c.logger.Debug("request completed",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.status),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", elapsed))

	if resp.status == http.StatusUnauthorized {
		c.evictToken()
	}
	if resp.status < 200 || resp.status > 299 {
		return statusError(req.op, resp.status, resp.body)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{Op: req.op, Status: resp.status, Message: "malformed response body", Err: err}
	}
	return nil
}

// roundTrip issues one HTTP exchange. Only transport failures return an
// error; any HTTP response, whatever its status, is a result.
func (c *Client) roundTrip(ctx context.Context, req request, requestID string) (*response, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	c.authorize(httpReq)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: httpResp.StatusCode, body: data}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

func (c *Client) evictToken() {
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warn("failed to clear stored token", zap.Error(err))
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func segment(s string) string {
	return url.PathEscape(s)
}
