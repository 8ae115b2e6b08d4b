// Package webhook forwards real-time order events to an outgoing HTTP
// endpoint, signing each delivery and recording the ones that fail.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/carwash/pkg/realtime"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Carwash-Signature"

// Payload is the JSON body posted for every event.
type Payload struct {
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Endpoint describes where and how events are delivered.
type Endpoint struct {
	URL        string
	Secret     string
	Types      []string // empty forwards every event type
	MaxRetries int
	RetryDelay time.Duration
}

// Forwarder posts events to one endpoint in the background.
type Forwarder struct {
	ep         Endpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger reports dropped and dead-lettered deliveries.
func WithLogger(l *zap.Logger) Option {
	return func(f *Forwarder) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewForwarder creates a forwarder. deadLetter may be nil.
func NewForwarder(ep Endpoint, deadLetter *DeadLetterStore, opts ...Option) *Forwarder {
	if ep.MaxRetries <= 0 {
		ep.MaxRetries = 3
	}
	if ep.RetryDelay <= 0 {
		ep.RetryDelay = time.Second
	}
	f := &Forwarder{
		ep:         ep,
		client:     &http.Client{Timeout: 10 * time.Second},
		deadLetter: deadLetter,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward schedules delivery of ev. It never blocks the caller.
func (f *Forwarder) Forward(ctx context.Context, ev realtime.Event) {
	if !f.matches(ev.Type) {
		return
	}
	body, err := json.Marshal(Payload{EventType: ev.Type, Timestamp: time.Now().UTC(), Data: ev.Data})
	if err != nil {
		f.logger.Warn("drop unencodable event", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.deliver(ctx, ev.Type, body)
	}()
}

// Wait blocks until every scheduled delivery finished or was dead-lettered.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

func (f *Forwarder) matches(eventType string) bool {
	if len(f.ep.Types) == 0 {
		return true
	}
	for _, t := range f.ep.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

func (f *Forwarder) deliver(ctx context.Context, eventType string, body []byte) {
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   f.ep.MaxRetries,
		InitialDelay:  f.ep.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f.send(ctx, body)
	})
	if err == nil {
		return
	}
	// A cancelled monitor abandons deliveries; they did not fail.
	if ctx.Err() != nil {
		f.logger.Debug("delivery abandoned", zap.String("event", eventType), zap.Error(ctx.Err()))
		return
	}
	f.logger.Warn("delivery failed", zap.String("event", eventType), zap.String("url", f.ep.URL), zap.Error(err))
	if f.deadLetter == nil {
		return
	}
	if err := f.deadLetter.Append(DeadLetter{
		Timestamp: time.Now().UTC(),
		URL:       f.ep.URL,
		EventType: eventType,
		Payload:   string(body),
		Error:     err.Error(),
		Attempts:  f.ep.MaxRetries,
	}); err != nil {
		f.logger.Error("write dead letter", zap.String("path", f.deadLetter.Path()), zap.Error(err))
	}
}

func (f *Forwarder) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "carwash-forwarder/1.0")
	if f.ep.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, f.ep.Secret))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
