package order

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// RealtimeNote is the note attached to log entries synthesized from
// real-time status events.
const RealtimeNote = "Status updated in real-time"

// sqliteLayout is the zone-less format the backend stores timestamps in.
const sqliteLayout = "2006-01-02 15:04:05"

// ActivityLogEntry records one status change of an order.
type ActivityLogEntry struct {
	ID            int64  `json:"id"`
	OrderID       ID     `json:"order_id,omitempty"`
	Status        Status `json:"status"`
	Notes         string `json:"notes,omitempty"`
	Timestamp     string `json:"timestamp"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	MobileName    string `json:"mobile_name,omitempty"`
}

// Time parses the entry timestamp. A zero time is returned when the value
// cannot be parsed.
func (e ActivityLogEntry) Time() time.Time {
	t, err := ParseTimestamp(e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseTimestamp parses backend timestamps. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, sqliteLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp: %s", s)
}

// SynthesizedEntry builds the log entry recorded when a real-time status
// event is applied to a tracking snapshot.
func SynthesizedEntry(id ID, status Status, receivedAt time.Time) ActivityLogEntry {
	return ActivityLogEntry{
		ID:        receivedAt.UnixMilli(),
		OrderID:   id,
		Status:    status,
		Notes:     RealtimeNote,
		Timestamp: receivedAt.UTC().Format(time.RFC3339Nano),
	}
}

// TrackingSnapshot is an order together with its activity log, newest first.
type TrackingSnapshot struct {
	Order Order              `json:"order"`
	Logs  []ActivityLogEntry `json:"logs"`
}

// Clone returns a deep copy of the snapshot.
func (t *TrackingSnapshot) Clone() *TrackingSnapshot {
	if t == nil {
		return nil
	}
	return &TrackingSnapshot{
		Order: *t.Order.Clone(),
		Logs:  slices.Clone(t.Logs),
	}
}

// WithEvent returns a copy of the snapshot with the status applied and the
// synthesized entry prepended to its log.
func (t *TrackingSnapshot) WithEvent(status Status, receivedAt time.Time) *TrackingSnapshot {
	next := t.Clone()
	next.Order.Status = status
	entry := SynthesizedEntry(next.Order.ID, status, receivedAt)
	next.Logs = append([]ActivityLogEntry{entry}, next.Logs...)
	return next
}
