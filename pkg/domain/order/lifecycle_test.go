package order_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

func TestLifecycleHappyPath(t *testing.T) {
	l, err := order.NewLifecycle("1", order.StatusPending)
	if err != nil {
		t.Fatalf("NewLifecycle: %v", err)
	}
	for _, next := range []order.Status{order.StatusAssigned, order.StatusOnWay, order.StatusWashing, order.StatusCompleted} {
		if err := l.Advance(next); err != nil {
			t.Fatalf("Advance(%s): %v", next, err)
		}
		if l.Current() != next {
			t.Fatalf("Current = %s, want %s", l.Current(), next)
		}
	}
	if err := l.Send(order.EventCancel); err == nil {
		t.Error("completed order must not be cancellable")
	}
}

func TestLifecycleRejectsSkips(t *testing.T) {
	l, err := order.NewLifecycle("1", order.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Advance(order.StatusWashing); err == nil {
		t.Error("expected error skipping to washing")
	}
	if l.Current() != order.StatusPending {
		t.Errorf("state changed to %s", l.Current())
	}
	if err := l.Advance(order.StatusPending); err == nil {
		t.Error("no event reaches pending")
	}
	if _, err := order.NewLifecycle("1", "bogus"); err == nil {
		t.Error("expected error for invalid initial status")
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to order.Status
		want     bool
	}{
		{order.StatusPending, order.StatusAssigned, true},
		{order.StatusPending, order.StatusCompleted, true},
		{order.StatusWashing, order.StatusAssigned, false},
		{order.StatusOnWay, order.StatusOnWay, false},
		{order.StatusOnWay, order.StatusCancelled, true},
		{order.StatusCompleted, order.StatusCancelled, false},
		{order.StatusCancelled, order.StatusPending, false},
		{"custom", order.StatusPending, true},
		{order.StatusWashing, "custom", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := order.CanAdvance(tt.from, tt.to); got != tt.want {
				t.Errorf("CanAdvance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSteps(t *testing.T) {
	steps := order.Steps(order.StatusOnWay)
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	if !steps[2].Active || !steps[2].Completed || steps[3].Completed {
		t.Errorf("unexpected steps: %+v", steps)
	}
	if steps[0].Label != "Order Placed" {
		t.Errorf("label = %q", steps[0].Label)
	}
	for _, s := range order.Steps(order.StatusCancelled) {
		if s.Completed {
			t.Errorf("cancelled order marks %s completed", s.Status)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-09-07 10:54:42", time.Date(2025, 9, 7, 10, 54, 42, 0, time.UTC)},
		{"2025-09-07T10:54:42Z", time.Date(2025, 9, 7, 10, 54, 42, 0, time.UTC)},
		{"2025-09-07T13:54:42+03:00", time.Date(2025, 9, 7, 10, 54, 42, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := order.ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := order.ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error")
	}
	if !(order.ActivityLogEntry{Timestamp: ""}).Time().IsZero() {
		t.Error("empty timestamp should give zero time")
	}
}

func TestSnapshotWithEvent(t *testing.T) {
	snap := &order.TrackingSnapshot{
		Order: order.Order{ID: "5", Status: order.StatusAssigned},
		Logs:  []order.ActivityLogEntry{{ID: 1, Status: order.StatusAssigned}},
	}
	at := time.UnixMilli(1_700_000_000_000)
	next := snap.WithEvent(order.StatusOnWay, at)

	if snap.Order.Status != order.StatusAssigned || len(snap.Logs) != 1 {
		t.Error("original snapshot mutated")
	}
	if next.Order.Status != order.StatusOnWay {
		t.Errorf("status = %s", next.Order.Status)
	}
	if len(next.Logs) != 2 || next.Logs[0].ID != 1_700_000_000_000 || next.Logs[0].Notes != order.RealtimeNote {
		t.Errorf("unexpected logs: %+v", next.Logs)
	}
}
