package order

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle status of an order as reported by the backend.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusOnWay     Status = "on_way"
	StatusWashing   Status = "washing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusAssigned,
		StatusOnWay,
		StatusWashing,
		StatusCompleted,
		StatusCancelled,
	}
}

// IsValid returns true if the status is one the client knows about.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusOnWay, StatusWashing, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// IsFinal returns true for statuses with no further transitions.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsComplete returns true only for the terminal-complete status.
func (s Status) IsComplete() bool {
	return s == StatusCompleted
}

// DisplayName returns a human-readable label for the status.
func (s Status) DisplayName() string {
	switch s {
	case StatusPending:
		return "Order Placed"
	case StatusAssigned:
		return "Mobile Assigned"
	case StatusOnWay:
		return "On the Way"
	case StatusWashing:
		return "Washing"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// ParseStatus parses a string into a known Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status: %s", s)
	}
	return status, nil
}

// UnmarshalJSON keeps unknown statuses verbatim. The backend owns the
// lifecycle, so a status the client has never seen is displayed, not rejected.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Status(str)
	return nil
}
