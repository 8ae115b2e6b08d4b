package order_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

func TestOrderDecodesCreateResponse(t *testing.T) {
	payload := `{
		"orderId": 17,
		"vehicleNumber": "12-345-67",
		"vehicleType": "sedan",
		"serviceType": "exterior+wax",
		"dirtLevel": 4,
		"duration": 80,
		"requestedDateTime": "2025-09-07T10:00:00.000Z",
		"price": 120,
		"status": "pending",
		"pdfPath": "/invoices/17.pdf",
		"mobile": {"name": "Unit A", "distance": 2.5, "estimatedArrival": "15 minutes"}
	}`

	var o order.Order
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.ID != "17" {
		t.Errorf("ID = %q, want 17", o.ID)
	}
	if o.InvoicePath != "/invoices/17.pdf" {
		t.Errorf("InvoicePath = %q", o.InvoicePath)
	}
	if o.DurationMinutes != 80 || o.DirtLevel != 4 {
		t.Errorf("duration/dirt = %d/%d", o.DurationMinutes, o.DirtLevel)
	}
	if o.Mobile == nil || o.Mobile.Name != "Unit A" || o.Mobile.EstimatedArrival != "15 minutes" {
		t.Errorf("Mobile = %+v", o.Mobile)
	}
	if o.Status != order.StatusPending {
		t.Errorf("Status = %s", o.Status)
	}
}

func TestOrderDecodesSnakeCase(t *testing.T) {
	payload := `{"id":"5","vehicle_number":"ABC123","status":"on_way","customer_email":"a@b.co",
		"mobile":{"name":"Unit B","location":{"lat":32.1,"lng":34.8}}}`

	var o order.Order
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.ID != "5" || o.VehicleNumber != "ABC123" || o.Status != order.StatusOnWay {
		t.Errorf("unexpected order: %+v", o)
	}
	if o.Mobile == nil || o.Mobile.Location == nil || o.Mobile.Location.Lat != 32.1 {
		t.Errorf("Mobile location not decoded: %+v", o.Mobile)
	}
}

func TestIDRoundTripsNumbers(t *testing.T) {
	data, err := json.Marshal(order.ID("42"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "42" {
		t.Errorf("numeric id marshalled as %s", data)
	}
	data, _ = json.Marshal(order.ID("ord-9"))
	if string(data) != `"ord-9"` {
		t.Errorf("string id marshalled as %s", data)
	}

	var id order.ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestIDMarshalKeepsNonCanonicalStrings(t *testing.T) {
	cases := []struct {
		id   order.ID
		want string
	}{
		{id: "12", want: `12`},
		{id: "-3", want: `-3`},
		{id: "007", want: `"007"`},
		{id: "+5", want: `"+5"`},
		{id: "abc", want: `"abc"`},
	}
	for _, tc := range cases {
		t.Run(string(tc.id), func(t *testing.T) {
			data, err := json.Marshal(tc.id)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tc.want {
				t.Fatalf("marshal %q = %s, want %s", tc.id, data, tc.want)
			}
			var back order.ID
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back != tc.id {
				t.Fatalf("round trip %q = %q", tc.id, back)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := order.ParseID(" #12 ")
	if err != nil || id != "12" {
		t.Errorf("ParseID = %q, %v", id, err)
	}
	if _, err := order.ParseID("#"); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestUnknownStatusIsKept(t *testing.T) {
	var o order.Order
	if err := json.Unmarshal([]byte(`{"id":1,"status":"inspecting"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Status != "inspecting" {
		t.Errorf("Status = %s", o.Status)
	}
	if o.Status.IsValid() {
		t.Error("unknown status reported valid")
	}
	if got := order.StatusMessage(o.Status); got != "Order status updated to inspecting" {
		t.Errorf("StatusMessage = %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	o := &order.Order{ID: "1", Mobile: &order.UnitSummary{Name: "A", Location: &order.Coordinate{Lat: 1}}}
	c := o.Clone()
	c.Mobile.Name = "B"
	c.Mobile.Location.Lat = 2
	if o.Mobile.Name != "A" || o.Mobile.Location.Lat != 1 {
		t.Error("clone shares pointers with original")
	}
	var nilOrder *order.Order
	if nilOrder.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestRequestMarshal(t *testing.T) {
	req := order.Request{
		VehicleNumber:      "12-345-67",
		VehicleType:        "suv",
		ServiceType:        "exterior",
		AdditionalServices: []string{"polish", "wax"},
		RequestedAt:        time.Date(2025, 9, 7, 13, 0, 0, 0, time.FixedZone("IDT", 3*3600)),
		LocationAddress:    "Dizengoff 1",
		CustomerEmail:      "a@b.co",
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	if wire["service_type"] != "exterior+polish+wax" {
		t.Errorf("service_type = %v", wire["service_type"])
	}
	if wire["requested_datetime"] != "2025-09-07T10:00:00.000Z" {
		t.Errorf("requested_datetime = %v", wire["requested_datetime"])
	}
	if wire["dirt_level"] != float64(order.DefaultDirtLevel) {
		t.Errorf("dirt_level = %v", wire["dirt_level"])
	}
	if _, ok := wire["additional_services"]; ok {
		t.Error("additional_services must not be sent")
	}
	if strings.Contains(string(data), "ServiceType") {
		t.Errorf("unexpected Go field names in %s", data)
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		dirt   int
		addOns []string
		want   int
	}{
		{1, nil, 40},
		{3, nil, 60},
		{5, []string{"polish"}, 95},
		{2, []string{"polish", "wax"}, 75},
		{3, []string{"unknown"}, 60},
	}
	for _, tt := range tests {
		if got := order.EstimateDuration(tt.dirt, tt.addOns); got != tt.want {
			t.Errorf("EstimateDuration(%d, %v) = %d, want %d", tt.dirt, tt.addOns, got, tt.want)
		}
	}
}
