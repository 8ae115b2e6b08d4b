package order

import (
	"encoding/json"
	"strings"
	"time"
)

// Vehicle types accepted by the booking form.
var VehicleTypes = []string{"sedan", "suv", "truck", "van", "motorcycle"}

// Base services; exactly one is required.
var BaseServices = []string{"exterior", "interior", "exterior+interior"}

// AddOn is an optional extra service with its extra duration in minutes.
type AddOn struct {
	Name    string
	Minutes int
}

// AddOns lists the optional services in display order.
var AddOns = []AddOn{
	{Name: "polish", Minutes: 15},
	{Name: "wax", Minutes: 10},
}

// DefaultDirtLevel is used when a booking does not state one.
const DefaultDirtLevel = 3

// Request is a booking as submitted by a customer. AdditionalServices are
// folded into service_type on the wire.
type Request struct {
	VehicleNumber      string    `json:"vehicle_number"`
	VehicleType        string    `json:"vehicle_type"`
	ServiceType        string    `json:"-"`
	AdditionalServices []string  `json:"-"`
	RequestedAt        time.Time `json:"-"`
	LocationLat        float64   `json:"location_lat"`
	LocationLng        float64   `json:"location_lng"`
	LocationAddress    string    `json:"location_address"`
	VehicleImage       string    `json:"vehicle_image,omitempty"`
	DirtLevel          int       `json:"dirt_level"`
	CustomerName       string    `json:"customer_name,omitempty"`
	CustomerPhone      string    `json:"customer_phone,omitempty"`
	CustomerEmail      string    `json:"customer_email"`
}

// FullServiceType joins the base service and its add-ons with '+'.
func (r Request) FullServiceType() string {
	parts := make([]string, 0, 1+len(r.AdditionalServices))
	if r.ServiceType != "" {
		parts = append(parts, r.ServiceType)
	}
	for _, s := range r.AdditionalServices {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "+")
}

// MarshalJSON emits the wire form of the booking.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	wire := struct {
		plain
		ServiceType string `json:"service_type"`
		RequestedAt string `json:"requested_datetime,omitempty"`
	}{
		plain:       plain(r),
		ServiceType: r.FullServiceType(),
	}
	if wire.DirtLevel == 0 {
		wire.DirtLevel = DefaultDirtLevel
	}
	if !r.RequestedAt.IsZero() {
		wire.RequestedAt = r.RequestedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return json.Marshal(wire)
}

// EstimateDuration is the local duration heuristic shown before the backend
// quote arrives.
func EstimateDuration(dirtLevel int, addOns []string) int {
	minutes := 30 + dirtLevel*10
	for _, name := range addOns {
		for _, a := range AddOns {
			if a.Name == name {
				minutes += a.Minutes
			}
		}
	}
	return minutes
}
