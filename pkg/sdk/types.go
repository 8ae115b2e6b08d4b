package sdk

import (
	"time"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Booking is the input of EstimatePrice and CreateOrder. A zero RequestedAt
// is left out of the arguments.
type Booking struct {
	VehicleNumber   string
	VehicleType     string
	ServiceType     string
	AddOns          []string
	RequestedAt     time.Time
	LocationLat     float64
	LocationLng     float64
	LocationAddress string
	DirtLevel       int
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
}

func (b Booking) args() map[string]any {
	args := map[string]any{
		"vehicle_number":   b.VehicleNumber,
		"vehicle_type":     b.VehicleType,
		"service_type":     b.ServiceType,
		"location_lat":     b.LocationLat,
		"location_lng":     b.LocationLng,
		"location_address": b.LocationAddress,
		"customer_email":   b.CustomerEmail,
	}
	if len(b.AddOns) > 0 {
		args["add_ons"] = b.AddOns
	}
	if !b.RequestedAt.IsZero() {
		args["requested_at"] = b.RequestedAt.UTC().Format(time.RFC3339)
	}
	if b.DirtLevel > 0 {
		args["dirt_level"] = b.DirtLevel
	}
	if b.CustomerName != "" {
		args["customer_name"] = b.CustomerName
	}
	if b.CustomerPhone != "" {
		args["customer_phone"] = b.CustomerPhone
	}
	return args
}

// OrdersFilter narrows AdminOrders. Zero values are omitted.
type OrdersFilter struct {
	Status   order.Status
	MobileID string
	Page     int
	Limit    int
}

// Health is the backend liveness report.
type Health struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp,omitempty"`
	Uptime    float64 `json:"uptime,omitempty"`
}

// Tracking is an order with its activity log and lifecycle progress.
type Tracking struct {
	order.TrackingSnapshot
	Progress []order.Step `json:"progress"`
}

// SchemaInfo describes the server's tool schema.
type SchemaInfo struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

// State is the server's client-side state snapshot.
type State struct {
	CurrentOrder  *order.Order            `json:"current_order,omitempty"`
	Tracking      *order.TrackingSnapshot `json:"tracking,omitempty"`
	Authenticated bool                    `json:"authenticated"`
	Verified      bool                    `json:"verified"`
}
