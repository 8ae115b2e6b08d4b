package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultURL is the real-time endpoint used when none is configured.
const DefaultURL = "ws://localhost:3000/ws"

// Observer receives connection and event notifications.
type Observer interface {
	ObserveConnected(connected bool)
	ObserveEvent(eventType string)
}

type options struct {
	dialer       *websocket.Dialer
	header       http.Header
	logger       *zap.Logger
	observer     Observer
	writeTimeout time.Duration
}

func defaultOptions() options {
	return options{
		dialer:       websocket.DefaultDialer,
		logger:       zap.NewNop(),
		writeTimeout: 5 * time.Second,
	}
}

// Option configures a Conn.
type Option func(*options)

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHeader sets headers sent on the upgrade request.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithLogger sets the connection logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a connection observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithWriteTimeout bounds each outbound signal.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}
