// Package sse relays real-time order events to browsers and scripts as
// Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/carwash/pkg/realtime"
)

// clientBuffer is the number of events queued per client before new
// events are dropped for it.
const clientBuffer = 64

// Relay fans real-time events out to every connected SSE client.
type Relay struct {
	mu      sync.RWMutex
	clients map[chan realtime.Event]struct{}
	seq     atomic.Uint64
}

// NewRelay creates an empty relay. Feed it with Publish.
func NewRelay() *Relay {
	return &Relay{clients: make(map[chan realtime.Event]struct{})}
}

// Publish queues ev for every client. Slow clients miss the event.
func (r *Relay) Publish(ev realtime.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Clients reports the number of connected clients.
func (r *Relay) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ServeHTTP streams events until the client disconnects. The optional
// types query parameter is a comma separated list of event types to keep.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter := make(map[string]bool)
	if types := req.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter[t] = true
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := make(chan realtime.Event, clientBuffer)
	r.mu.Lock()
	r.clients[ch] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.clients, ch)
		r.mu.Unlock()
	}()

	// Comment line so clients see the stream open before the first event.
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := req.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if len(filter) > 0 && !filter[ev.Type] {
				continue
			}
			data := ev.Data
			if len(data) == 0 {
				data = []byte("{}")
			}
			_, _ = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", r.seq.Add(1), ev.Type, data)
			flusher.Flush()
		}
	}
}
