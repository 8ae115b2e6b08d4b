package realtime

import (
	"encoding/json"
	"fmt"
)

// Server-to-client event types.
const (
	EventStatusUpdate      = "status-update"
	EventAdminStatusUpdate = "admin-status-update"
	EventOrderCreated      = "order-created"
)

// Client-to-server signals.
const (
	SignalJoinOrder  = "join-order"
	SignalLeaveOrder = "leave-order"
)

// Event is one message on the channel. Data is decoded by the handler that
// understands Type.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

func newEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Data: raw}, nil
}
