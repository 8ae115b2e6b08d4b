// Package fleet models the mobile service units that travel to customers.
package fleet

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Availability decodes the backend's availability flag, which arrives as a
// JSON bool or as the integers 0 and 1.
type Availability bool

func (a *Availability) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1", `"1"`, `"true"`:
		*a = true
	case "false", "0", `"0"`, `"false"`, "null":
		*a = false
	default:
		return fmt.Errorf("expected availability as bool or 0/1, got %s", string(data))
	}
	return nil
}

// ID identifies a unit. Numeric and string ids decode to the same value.
type ID string

func (id ID) String() string {
	return string(id)
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
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected unit id as number or string, got %s", string(data))
	}
	*id = ID(s)
	return nil
}

// Unit is one mobile service unit.
type Unit struct {
	ID             ID           `json:"id"`
	Name           string       `json:"name"`
	IsAvailable    Availability `json:"is_available"`
	LocationLat    float64      `json:"location_lat"`
	LocationLng    float64      `json:"location_lng"`
	AvailableFrom  string       `json:"available_from,omitempty"`
	CurrentOrderID order.ID     `json:"current_order_id,omitempty"`
	Distance       float64      `json:"distance,omitempty"`
}

// Update is a partial change to a unit. Nil fields are left untouched.
type Update struct {
	Name          *string  `json:"name,omitempty"`
	IsAvailable   *bool    `json:"is_available,omitempty"`
	LocationLat   *float64 `json:"location_lat,omitempty"`
	LocationLng   *float64 `json:"location_lng,omitempty"`
	AvailableFrom *string  `json:"available_from,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Name == nil && u.IsAvailable == nil && u.LocationLat == nil &&
		u.LocationLng == nil && u.AvailableFrom == nil
}

// Apply returns a copy of unit with the update merged over it.
func (u Update) Apply(unit Unit) Unit {
	if u.Name != nil {
		unit.Name = *u.Name
	}
	if u.IsAvailable != nil {
		unit.IsAvailable = Availability(*u.IsAvailable)
	}
	if u.LocationLat != nil {
		unit.LocationLat = *u.LocationLat
	}
	if u.LocationLng != nil {
		unit.LocationLng = *u.LocationLng
	}
	if u.AvailableFrom != nil {
		unit.AvailableFrom = *u.AvailableFrom
	}
	return unit
}

// Merge overlays other onto u, preferring other's set fields.
func (u Update) Merge(other Update) Update {
	if other.Name != nil {
		u.Name = other.Name
	}
	if other.IsAvailable != nil {
		u.IsAvailable = other.IsAvailable
	}
	if other.LocationLat != nil {
		u.LocationLat = other.LocationLat
	}
	if other.LocationLng != nil {
		u.LocationLng = other.LocationLng
	}
	if other.AvailableFrom != nil {
		u.AvailableFrom = other.AvailableFrom
	}
	return u
}

// AvailabilityChange is the body of the per-unit availability endpoint.
type AvailabilityChange struct {
	IsAvailable   bool   `json:"is_available"`
	AvailableFrom string `json:"available_from,omitempty"`
}

// UpdateResult is the backend's acknowledgement of a unit update.
type UpdateResult struct {
	MobileID ID     `json:"mobileId"`
	Updates  Update `json:"updates"`
}
