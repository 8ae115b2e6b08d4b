package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Conn is an owned connection to the real-time channel. It is safe for
// concurrent use. A dropped connection is not re-established automatically.
type Conn struct {
	url          string
	dialer       *websocket.Dialer
	header       http.Header
	logger       *zap.Logger
	observer     Observer
	writeTimeout time.Duration
	dispatcher   *Dispatcher

	connectMu sync.Mutex

	mu   sync.Mutex
	ws   *websocket.Conn
	subs map[order.ID]int
	done chan struct{}
}

// New creates an unconnected Conn for url.
func New(url string, opts ...Option) *Conn {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if url == "" {
		url = DefaultURL
	}
	done := make(chan struct{})
	close(done)
	return &Conn{
		url:          url,
		dialer:       o.dialer,
		header:       o.header,
		logger:       o.logger.With(zap.String("component", "realtime")),
		observer:     o.observer,
		writeTimeout: o.writeTimeout,
		dispatcher:   NewDispatcher(),
		subs:         make(map[order.ID]int),
		done:         done,
	}
}

// Handle registers a handler for the given event types, or for every event
// when none are given.
func (c *Conn) Handle(name string, fn HandlerFunc, eventTypes ...string) {
	c.dispatcher.Register(name, fn, eventTypes...)
}

// Remove unregisters the handlers registered under name.
func (c *Conn) Remove(name string) {
	c.dispatcher.Remove(name)
}

// Connect dials the channel. It is a no-op while a connection is open.
// Orders subscribed before Connect are joined once the connection is up.
func (c *Conn) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.Connected() {
		return nil
	}

	ws, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		c.logger.Warn("connection error", zap.String("url", c.url), zap.Error(err))
		return fmt.Errorf("connect %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.ws = ws
	done := make(chan struct{})
	c.done = done
	for id := range c.subs {
		c.signalLocked(SignalJoinOrder, id)
	}
	c.mu.Unlock()

	c.logger.Info("connected", zap.String("url", c.url))
	if c.observer != nil {
		c.observer.ObserveConnected(true)
	}
	go c.readLoop(ws, done)
	return nil
}

// Connected reports whether a connection is open.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// Done returns a channel closed when the current connection ends.
func (c *Conn) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Close ends the connection. Subscriptions are kept and rejoined on the
// next Connect.
func (c *Conn) Close() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	done := c.done
	c.mu.Unlock()

	if ws == nil {
		return nil
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := ws.Close()
	<-done
	return err
}

// Subscribe registers interest in an order. Only the first subscriber of an
// order emits the join signal.
func (c *Conn) Subscribe(id order.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[id]++
	if c.subs[id] == 1 {
		c.signalLocked(SignalJoinOrder, id)
	}
}

// Unsubscribe drops one subscriber of an order. The leave signal is sent
// only when no subscribers remain.
func (c *Conn) Unsubscribe(id order.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.subs[id]
	if !ok {
		return
	}
	if n > 1 {
		c.subs[id] = n - 1
		return
	}
	delete(c.subs, id)
	c.signalLocked(SignalLeaveOrder, id)
}

// Subscribers returns the subscriber count of an order.
func (c *Conn) Subscribers(id order.ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[id]
}

// signalLocked writes a fire-and-forget signal. Callers hold c.mu, which
// also serialises writes on the socket.
func (c *Conn) signalLocked(signal string, id order.ID) {
	if c.ws == nil {
		return
	}
	ev, err := newEvent(signal, id)
	if err != nil {
		c.logger.Warn("encode signal", zap.String("signal", signal), zap.Error(err))
		return
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteJSON(ev); err != nil {
		c.logger.Warn("send signal failed",
			zap.String("signal", signal),
			zap.String("order_id", id.String()),
			zap.Error(err))
		return
	}
	c.logger.Debug("signal sent", zap.String("signal", signal), zap.String("order_id", id.String()))
}

func (c *Conn) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	ctx := context.Background()
	for {
		var ev Event
		if err := ws.ReadJSON(&ev); err != nil {
			c.disconnected(ws, err)
			return
		}
		c.logger.Debug("event received", zap.String("type", ev.Type))
		if c.observer != nil {
			c.observer.ObserveEvent(ev.Type)
		}
		if err := c.dispatcher.Dispatch(ctx, ev); err != nil {
			c.logger.Warn("event handling failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}

func (c *Conn) disconnected(ws *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.ws == ws
	if current {
		c.ws = nil
	}
	c.mu.Unlock()
	_ = ws.Close()

	var closeErr *websocket.CloseError
	switch {
	case !current, errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure:
		c.logger.Info("disconnected")
	default:
		c.logger.Warn("disconnected", zap.Error(err))
	}
	if c.observer != nil {
		c.observer.ObserveConnected(false)
	}
}
