package fakebackend

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Signal is a join-order or leave-order message received from a client.
type Signal struct {
	Type    string
	OrderID string
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	rooms   map[string]bool
}

func (c *client) send(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_ = c.conn.WriteJSON(v)
}

type hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	signals  []Signal
	upgrader websocket.Upgrader
}

func newHub() *hub {
	return &hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, rooms: make(map[string]bool)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		room := roomName(msg.Data)
		h.mu.Lock()
		switch msg.Type {
		case "join-order":
			c.rooms[room] = true
			h.signals = append(h.signals, Signal{Type: msg.Type, OrderID: room})
		case "leave-order":
			delete(c.rooms, room)
			h.signals = append(h.signals, Signal{Type: msg.Type, OrderID: room})
		}
		h.mu.Unlock()
	}
}

// roomName accepts an order id sent as a JSON string or number.
func roomName(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(data))
}

func (h *hub) broadcast(room, eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg := envelope{Type: eventType, Data: raw}

	h.mu.Lock()
	var targets []*client
	for c := range h.clients {
		if room == "" || c.rooms[room] {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.send(msg)
	}
}

func (h *hub) members(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		if c.rooms[room] {
			n++
		}
	}
	return n
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) waitForMembers(room string, n int, timeout time.Duration) bool {
	return poll(timeout, func() bool { return h.members(room) == n })
}

func (h *hub) waitForClients(n int, timeout time.Duration) bool {
	return poll(timeout, func() bool { return h.clientCount() == n })
}

func (h *hub) signalLog() []Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.signals)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func poll(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}
