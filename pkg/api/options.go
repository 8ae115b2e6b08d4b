package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the backend location used when none is configured.
const DefaultBaseURL = "http://localhost:3000/api"

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// TokenStore supplies the bearer token and evicts it on authentication failure.
type TokenStore interface {
	oauth2.TokenSource
	Clear() error
}

// Observer receives one callback per completed round trip. Status is zero
// when no response was received.
type Observer interface {
	ObserveRequest(op string, status int, elapsed time.Duration)
}

type options struct {
	timeout        time.Duration
	maxAttempts    int
	initialDelay   time.Duration
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized func()
	logger         *zap.Logger
	observer       Observer
}

func defaultOptions() options {
	return options{
		timeout:     DefaultTimeout,
		maxAttempts: 1,
		httpClient:  &http.Client{},
		logger:      zap.NewNop(),
	}
}

// Option configures the API client.
type Option func(*options)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry retries transport failures. HTTP error responses are never retried.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTokenStore sets where the bearer token is read from.
func WithTokenStore(s TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithUnauthorizedHandler sets the hook run after a 401 evicts the token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

// WithLogger sets the logger for round-trip diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a request observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
