package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

func valid() order.Request {
	return order.Request{
		VehicleNumber:      "12-345-67",
		VehicleType:        "suv",
		ServiceType:        "exterior",
		AdditionalServices: []string{"polish"},
		RequestedAt:        time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		LocationLat:        32.08,
		LocationLng:        34.78,
		LocationAddress:    "Rothschild 10",
		DirtLevel:          4,
		CustomerPhone:      "+972 50-123-4567",
		CustomerEmail:      "dana@example.com",
	}
}

func TestBookingValid(t *testing.T) {
	if err := Booking(valid()); err != nil {
		t.Fatalf("Booking: %v", err)
	}
}

func TestBookingInvalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*order.Request)
		field  string
		msg    string
	}{
		{"missing plate", func(r *order.Request) { r.VehicleNumber = "" }, "vehicle_number", "Vehicle number is required"},
		{"short plate", func(r *order.Request) { r.VehicleNumber = "12ab" }, "vehicle_number", "Must be at least 6 characters"},
		{"few digits", func(r *order.Request) { r.VehicleNumber = "ab-cd-12" }, "vehicle_number", "Must contain at least 3 digits"},
		{"missing type", func(r *order.Request) { r.VehicleType = "" }, "vehicle_type", "Vehicle type is required"},
		{"unknown type", func(r *order.Request) { r.VehicleType = "tank" }, "vehicle_type", ""},
		{"bad email", func(r *order.Request) { r.CustomerEmail = "dana@" }, "customer_email", "Email address is invalid"},
		{"bad phone", func(r *order.Request) { r.CustomerPhone = "12345" }, "customer_phone", "Invalid phone number (9-12 digits)"},
		{"no service", func(r *order.Request) { r.ServiceType = "" }, "service_type", ""},
		{"unknown add-on", func(r *order.Request) { r.AdditionalServices = []string{"ceramic"} }, "service_type", ""},
		{"blank address", func(r *order.Request) { r.LocationAddress = "  " }, "location_address", "Address is required"},
		{"dirt out of range", func(r *order.Request) { r.DirtLevel = 9 }, "dirt_level", ""},
		{"no time", func(r *order.Request) { r.RequestedAt = time.Time{} }, "requested_datetime", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid()
			tc.mutate(&r)
			err := Booking(r)
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			msg, ok := verr.Fields[tc.field]
			if !ok {
				t.Fatalf("field %s not reported: %v", tc.field, verr.Fields)
			}
			if tc.msg != "" && msg != tc.msg {
				t.Errorf("message = %q, want %q", msg, tc.msg)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}
