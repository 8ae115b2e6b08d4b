// Package admin holds the operator-facing types: session, activity log
// pages, order filters and the dashboard aggregate.
package admin

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Default page sizes for admin listings.
const (
	DefaultLogLimit   = 50
	DefaultOrderLimit = 20
)

// Credentials are the operator's login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

// Profile is the operator profile returned at login.
type Profile struct {
	ID    json.Number `json:"id,omitempty"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  string      `json:"role,omitempty"`
}

// LoginResult is the backend's response to a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	Admin *Profile `json:"admin"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// DefaultLogPagination is the pagination held before the first log fetch.
func DefaultLogPagination() Pagination {
	return Pagination{Page: 1, Limit: DefaultLogLimit}
}

// LogPage is one page of the activity log.
type LogPage struct {
	Logs       []order.ActivityLogEntry `json:"logs"`
	Pagination Pagination               `json:"pagination"`
}

// LogQuery selects a page of the activity log. Zero values take defaults;
// an empty OrderID means all orders.
type LogQuery struct {
	Page    int
	Limit   int
	OrderID order.ID
}

// Normalize fills default page and limit.
func (q LogQuery) Normalize() LogQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLogLimit
	}
	return q
}

// OrderFilter selects admin orders. Empty fields are not sent.
type OrderFilter struct {
	Status   order.Status
	MobileID string
	Page     int
	Limit    int
}

// Normalize fills default page and limit.
func (f OrderFilter) Normalize() OrderFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultOrderLimit
	}
	return f
}

// StatusUpdate is the body of an order status change.
type StatusUpdate struct {
	Status order.Status `json:"status"`
	Notes  string       `json:"notes,omitempty"`
}

// Dashboard is the backend's aggregate view, passed through unchanged.
type Dashboard json.RawMessage

func (d Dashboard) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *Dashboard) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// Sections decodes the top-level keys of the aggregate.
func (d Dashboard) Sections() (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if len(d) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(d, &m); err != nil {
		return nil, fmt.Errorf("decode dashboard: %w", err)
	}
	return m, nil
}
