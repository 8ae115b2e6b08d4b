// Package order holds the customer-visible order projection and its
// lifecycle, as the booking backend reports them.
package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies an order. The backend emits ids as JSON numbers in some
// payloads and as strings in others; both decode to the same ID.
type ID string

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// ParseID normalises user input such as "42" or "#42".
func ParseID(s string) (ID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return "", fmt.Errorf("order ID cannot be empty")
	}
	return ID(s), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	return fmt.Errorf("expected order id as number or string, got %s", string(data))
}

// MarshalJSON emits canonical integer ids as numbers so the backend sees
// what it sent. Anything else, such as "007" or "+5", stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UnitSummary is the assigned service unit as embedded in an order.
type UnitSummary struct {
	ID               string      `json:"id,omitempty"`
	Name             string      `json:"name"`
	Distance         float64     `json:"distance,omitempty"`
	EstimatedArrival string      `json:"estimatedArrival,omitempty"`
	Location         *Coordinate `json:"location,omitempty"`
}

// Order is the customer-visible projection of a booking.
type Order struct {
	ID              ID           `json:"id"`
	VehicleNumber   string       `json:"vehicle_number,omitempty"`
	VehicleType     string       `json:"vehicle_type,omitempty"`
	VehicleImage    string       `json:"vehicle_image,omitempty"`
	ServiceType     string       `json:"service_type,omitempty"`
	DirtLevel       int          `json:"dirt_level,omitempty"`
	Price           float64      `json:"price"`
	DurationMinutes int          `json:"duration_minutes,omitempty"`
	Status          Status       `json:"status"`
	RequestedAt     string       `json:"requested_datetime,omitempty"`
	CreatedAt       string       `json:"created_at,omitempty"`
	LocationLat     float64      `json:"location_lat,omitempty"`
	LocationLng     float64      `json:"location_lng,omitempty"`
	LocationAddress string       `json:"location_address,omitempty"`
	CustomerName    string       `json:"customer_name,omitempty"`
	CustomerPhone   string       `json:"customer_phone,omitempty"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	MobileName      string       `json:"mobile_name,omitempty"`
	Mobile          *UnitSummary `json:"mobile,omitempty"`
	InvoicePath     string       `json:"pdf_path,omitempty"`
}

// camelOrder is the shape of the create-order response.
type camelOrder struct {
	OrderID           ID     `json:"orderId"`
	VehicleNumber     string `json:"vehicleNumber"`
	VehicleType       string `json:"vehicleType"`
	ServiceType       string `json:"serviceType"`
	DirtLevel         int    `json:"dirtLevel"`
	Duration          int    `json:"duration"`
	RequestedDateTime string `json:"requestedDateTime"`
	PdfPath           string `json:"pdfPath"`
}

// UnmarshalJSON accepts both the snake_case listing shape and the camelCase
// create response, preferring snake_case fields when both are present.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var c camelOrder
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}

	if p.ID.IsZero() {
		p.ID = c.OrderID
	}
	if p.VehicleNumber == "" {
		p.VehicleNumber = c.VehicleNumber
	}
	if p.VehicleType == "" {
		p.VehicleType = c.VehicleType
	}
	if p.ServiceType == "" {
		p.ServiceType = c.ServiceType
	}
	if p.DirtLevel == 0 {
		p.DirtLevel = c.DirtLevel
	}
	if p.DurationMinutes == 0 {
		p.DurationMinutes = c.Duration
	}
	if p.RequestedAt == "" {
		p.RequestedAt = c.RequestedDateTime
	}
	if p.InvoicePath == "" {
		p.InvoicePath = c.PdfPath
	}
	*o = Order(p)
	return nil
}

// WithStatus returns a copy of the order carrying the given status.
func (o Order) WithStatus(s Status) Order {
	o.Status = s
	return o
}

// Clone returns a copy that shares no pointers with the receiver.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Mobile != nil {
		m := *o.Mobile
		if o.Mobile.Location != nil {
			loc := *o.Mobile.Location
			m.Location = &loc
		}
		c.Mobile = &m
	}
	return &c
}

// Estimate is the backend's price and duration quote.
type Estimate struct {
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration"`
}

// StatusChange is the backend's acknowledgement of a status update.
type StatusChange struct {
	OrderID ID     `json:"orderId"`
	Status  Status `json:"status"`
	Notes   string `json:"notes,omitempty"`
}
