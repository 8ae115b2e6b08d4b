// Package validate checks bookings before they are submitted.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

const bookingSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["vehicle_number", "vehicle_type", "service_type", "location_address", "customer_email", "requested_datetime"],
  "properties": {
    "vehicle_number": { "type": "string" },
    "vehicle_type": { "enum": ["sedan", "suv", "truck", "van", "motorcycle"] },
    "service_type": { "type": "string", "pattern": "^(exterior|interior|exterior\\+interior)(\\+(polish|wax))*$" },
    "dirt_level": { "type": "integer", "minimum": 1, "maximum": 5 },
    "location_lat": { "type": "number", "minimum": -90, "maximum": 90 },
    "location_lng": { "type": "number", "minimum": -180, "maximum": 180 },
    "location_address": { "type": "string" },
    "customer_email": { "type": "string" },
    "customer_phone": { "type": "string" }
  }
}`

var (
	bookingSchemaLoader = gojsonschema.NewStringLoader(bookingSchemaJSON)

	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,12}$`)
)

// Error lists the invalid fields of a booking with a message for each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

// Booking validates a request. The first message per field wins.
func Booking(r order.Request) error {
	fields := map[string]string{}
	add := func(field, msg string) {
		if _, ok := fields[field]; !ok {
			fields[field] = msg
		}
	}

	switch {
	case r.VehicleNumber == "":
		add("vehicle_number", "Vehicle number is required")
	case len(r.VehicleNumber) < 6:
		add("vehicle_number", "Must be at least 6 characters")
	case countDigits(r.VehicleNumber) < 3:
		add("vehicle_number", "Must contain at least 3 digits")
	}
	if r.VehicleType == "" {
		add("vehicle_type", "Vehicle type is required")
	}
	switch {
	case r.CustomerEmail == "":
		add("customer_email", "Email is required")
	case !emailPattern.MatchString(r.CustomerEmail):
		add("customer_email", "Email address is invalid")
	}
	if r.CustomerPhone != "" && !phonePattern.MatchString(stripPhone(r.CustomerPhone)) {
		add("customer_phone", "Invalid phone number (9-12 digits)")
	}
	if r.ServiceType == "" {
		add("service_type", "Please select a base service (Exterior, Interior, etc.)")
	}
	if strings.TrimSpace(r.LocationAddress) == "" {
		add("location_address", "Address is required")
	}
	if r.RequestedAt.IsZero() {
		add("requested_datetime", "Requested date and time is required")
	}

	if err := checkSchema(r, add); err != nil {
		return err
	}
	if len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}

func checkSchema(r order.Request, add func(field, msg string)) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	result, err := gojsonschema.Validate(bookingSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("booking schema: %w", err)
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		add(field, desc.Description())
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func stripPhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, s)
}
