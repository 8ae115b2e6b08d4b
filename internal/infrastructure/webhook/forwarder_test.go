package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/felixgeelhaar/carwash/pkg/realtime"
)

func statusEvent() realtime.Event {
	return realtime.Event{Type: realtime.EventStatusUpdate, Data: json.RawMessage(`{"orderId":7,"status":"washing"}`)}
}

func TestForwarder_DeliversSignedPayload(t *testing.T) {
	var (
		mu   sync.Mutex
		sig  string
		body []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		sig = r.Header.Get(SignatureHeader)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	f := NewForwarder(Endpoint{URL: server.URL, Secret: "s3cret"}, nil)
	f.Forward(context.Background(), statusEvent())
	f.Wait()

	mu.Lock()
	defer mu.Unlock()
	if sig != Sign(body, "s3cret") {
		t.Errorf("signature mismatch: got %q", sig)
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.EventType != realtime.EventStatusUpdate {
		t.Errorf("event type = %q", p.EventType)
	}
	if string(p.Data) != `{"orderId":7,"status":"washing"}` {
		t.Errorf("data = %s", p.Data)
	}
}

func TestForwarder_TypeFilter(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer server.Close()

	f := NewForwarder(Endpoint{URL: server.URL, Types: []string{realtime.EventOrderCreated}}, nil)
	f.Forward(context.Background(), statusEvent())
	f.Forward(context.Background(), realtime.Event{Type: realtime.EventOrderCreated, Data: json.RawMessage(`{"orderId":8}`)})
	f.Wait()

	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}
}

func TestForwarder_DeadLettersAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "spool", "deadletters.jsonl"))
	f := NewForwarder(Endpoint{URL: server.URL, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}, store)
	f.Forward(context.Background(), statusEvent())
	f.Wait()

	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(entries))
	}
	if entries[0].EventType != realtime.EventStatusUpdate || entries[0].Attempts != 2 || entries[0].URL != server.URL {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestForwarder_CancelSkipsDeadLetter(t *testing.T) {
	started := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "deadletters.jsonl"))
	f := NewForwarder(Endpoint{URL: server.URL, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}, store)
	ctx, cancel := context.WithCancel(context.Background())
	f.Forward(ctx, statusEvent())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never reached the endpoint")
	}
	cancel()
	f.Wait()

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cancelled delivery was dead-lettered: %+v", entries)
	}
}

func TestForwarder_LogsLostDeliveries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cases := []struct {
		name  string
		event realtime.Event
		store func(t *testing.T) *DeadLetterStore
		want  string
	}{
		{
			name:  "unencodable event",
			event: realtime.Event{Type: realtime.EventStatusUpdate, Data: json.RawMessage(`{bad`)},
			store: func(*testing.T) *DeadLetterStore { return nil },
			want:  "drop unencodable event",
		},
		{
			name:  "dead letter write fails",
			event: statusEvent(),
			store: func(t *testing.T) *DeadLetterStore {
				blocker := filepath.Join(t.TempDir(), "blocker")
				if err := os.WriteFile(blocker, nil, 0600); err != nil {
					t.Fatal(err)
				}
				return NewDeadLetterStore(filepath.Join(blocker, "deadletters.jsonl"))
			},
			want: "write dead letter",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			f := NewForwarder(Endpoint{URL: server.URL, MaxRetries: 1, RetryDelay: time.Millisecond}, tc.store(t), WithLogger(zap.New(core)))
			f.Forward(context.Background(), tc.event)
			f.Wait()

			if logs.FilterMessage(tc.want).Len() != 1 {
				t.Fatalf("expected %q to be logged, got %v", tc.want, logs.All())
			}
		})
	}
}

func TestDeadLetterStore_MissingFile(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "none.jsonl"))
	entries, err := store.ReadAll()
	if err != nil || entries != nil {
		t.Fatalf("expected no entries, got %v %v", entries, err)
	}
}
