package sdk

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go/client"
	"github.com/felixgeelhaar/mcp-go/protocol"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// mockTransport implements client.Transport and returns canned responses
// based on the method name in the request.
type mockTransport struct {
	closed    bool
	calls     map[string]int
	responses map[string]any
}

func newMockTransport() *mockTransport {
	return &mockTransport{calls: make(map[string]int), responses: make(map[string]any)}
}

func (m *mockTransport) setToolResponse(text string, isError bool) {
	result := map[string]any{
		"content": []any{map[string]any{"type": "text", "text": text}},
	}
	if isError {
		result["isError"] = true
	}
	m.responses["tools/call"] = result
}

func (m *mockTransport) setResourceResponse(uri, text string) {
	m.responses["resources/read"] = map[string]any{
		"contents": []any{map[string]any{"uri": uri, "text": text}},
	}
}

func (m *mockTransport) Send(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	m.calls[req.Method]++
	result, ok := m.responses[req.Method]
	if !ok {
		if req.Method == "initialize" {
			return protocol.NewResponse(req.ID, map[string]any{
				"serverInfo":      map[string]any{"name": "carwash", "version": "1.0.0"},
				"protocolVersion": "2024-11-05",
				"capabilities":    map[string]any{"tools": map[string]any{}},
			}), nil
		}
		if req.IsNotification() {
			return nil, nil
		}
		return protocol.NewResponse(req.ID, map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "{}"}},
		}), nil
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func newTestClient(t *testing.T, mt *mockTransport) *Client {
	t.Helper()
	c := NewClient(mt, WithRetry(1, time.Millisecond))
	if _, err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func TestTextResult(t *testing.T) {
	t.Run("extracts text", func(t *testing.T) {
		r := &client.ToolResult{Content: []client.ContentItem{{Type: "text", Text: "hello"}}}
		got, err := textResult(r)
		if err != nil || got != "hello" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		if _, err := textResult(&client.ToolResult{}); err != ErrNoContent {
			t.Fatalf("got %v, want ErrNoContent", err)
		}
	})
}

func TestUnmarshalText(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		r := &client.ToolResult{Content: []client.ContentItem{{Type: "text", Text: `{"price":95,"duration":50}`}}}
		est, err := unmarshalText[order.Estimate](r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est.Price != 95 || est.DurationMinutes != 50 {
			t.Fatalf("unexpected estimate: %+v", est)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		r := &client.ToolResult{Content: []client.ContentItem{{Type: "text", Text: "not json"}}}
		if _, err := unmarshalText[order.Estimate](r); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})
}

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.0.0", "1"},
		{"2.3.4", "2"},
		{"10.0.1", "10"},
		{"3", "3"},
	}
	for _, tt := range tests {
		if got := majorVersion(tt.input); got != tt.want {
			t.Errorf("majorVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBookingArgs(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	args := Booking{
		VehicleNumber: "12-345-67",
		ServiceType:   "exterior",
		AddOns:        []string{"wax"},
		RequestedAt:   at,
		CustomerEmail: "dana@example.com",
	}.args()

	if args["requested_at"] != "2026-05-01T09:30:00Z" {
		t.Errorf("requested_at = %v", args["requested_at"])
	}
	if _, ok := args["dirt_level"]; ok {
		t.Error("zero dirt level should be omitted")
	}
	if _, ok := args["customer_name"]; ok {
		t.Error("empty customer name should be omitted")
	}
	if got, ok := args["add_ons"].([]string); !ok || len(got) != 1 {
		t.Errorf("add_ons = %v", args["add_ons"])
	}

	if _, ok := (Booking{}).args()["requested_at"]; ok {
		t.Error("zero time should be omitted")
	}
}

func TestClient_EstimatePrice(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{"price":95,"duration":50}`, false)
	c := newTestClient(t, mt)

	est, err := c.EstimatePrice(context.Background(), Booking{ServiceType: "exterior"})
	if err != nil {
		t.Fatalf("EstimatePrice: %v", err)
	}
	if est.Price != 95 || est.DurationMinutes != 50 {
		t.Errorf("unexpected estimate: %+v", est)
	}
}

func TestClient_CreateOrderAcceptsCamelCase(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{"orderId":12,"vehicleNumber":"12-345-67","serviceType":"exterior+wax","price":95,"status":"pending"}`, false)
	c := newTestClient(t, mt)

	o, err := c.CreateOrder(context.Background(), Booking{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID != "12" || o.VehicleNumber != "12-345-67" || o.Status != order.StatusPending {
		t.Errorf("unexpected order: %+v", o)
	}
}

func TestClient_TrackOrder(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{
		"order": {"id": 5, "status": "washing", "price": 80},
		"logs": [{"id": 1, "order_id": 5, "status": "pending", "notes": "Order created"}],
		"progress": [{"status": "pending", "label": "Order Placed", "completed": true, "active": false}]
	}`, false)
	c := newTestClient(t, mt)

	tr, err := c.TrackOrder(context.Background(), "5")
	if err != nil {
		t.Fatalf("TrackOrder: %v", err)
	}
	if tr.Order.Status != order.StatusWashing || len(tr.Logs) != 1 || len(tr.Progress) != 1 {
		t.Errorf("unexpected tracking: %+v", tr)
	}
}

func TestClient_AdminLists(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`[{"id": 1, "status": "assigned", "price": 80}, {"id": 2, "status": "pending", "price": 60}]`, false)
	c := newTestClient(t, mt)

	orders, err := c.AdminOrders(context.Background(), OrdersFilter{Status: order.StatusAssigned, Limit: 10})
	if err != nil {
		t.Fatalf("AdminOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "1" {
		t.Errorf("unexpected orders: %+v", orders)
	}

	mt.setToolResponse(`[]`, false)
	units, err := c.Fleet(context.Background())
	if err != nil {
		t.Fatalf("Fleet: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("expected no units, got %d", len(units))
	}
}

func TestClient_ToolError(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse("Failed to list orders. Log in with 'carwash admin login' first.", true)
	c := newTestClient(t, mt)

	_, err := c.AdminOrders(context.Background(), OrdersFilter{})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.Tool != "carwash_admin_orders" || !strings.Contains(toolErr.Message, "admin login") {
		t.Errorf("unexpected tool error: %+v", toolErr)
	}
	if !strings.Contains(toolErr.Error(), "carwash_admin_orders") {
		t.Errorf("error should contain tool name: %s", toolErr.Error())
	}
	if mt.calls["tools/call"] != 1 {
		t.Errorf("tool errors should not be retried, got %d calls", mt.calls["tools/call"])
	}
}

func TestClient_Compatible(t *testing.T) {
	mt := newMockTransport()
	mt.setResourceResponse(schemaURI, `{"schema_version":"1.0.0","server_version":"dev","tools":["carwash_health"]}`)
	c := newTestClient(t, mt)

	if err := c.Compatible(context.Background()); err != nil {
		t.Fatalf("Compatible: %v", err)
	}

	mt.setResourceResponse(schemaURI, `{"schema_version":"2.0.0"}`)
	if err := c.Compatible(context.Background()); err == nil || !strings.Contains(err.Error(), "incompatible") {
		t.Fatalf("expected incompatibility, got %v", err)
	}
}

func TestClient_GetState(t *testing.T) {
	mt := newMockTransport()
	mt.setResourceResponse(stateURI, `{"current_order":{"id":3,"status":"pending","price":60},"authenticated":true,"verified":false}`)
	c := newTestClient(t, mt)

	st, err := c.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.CurrentOrder == nil || st.CurrentOrder.ID != "3" || !st.Authenticated || st.Verified {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestClient_Close(t *testing.T) {
	mt := newMockTransport()
	c := NewClient(mt)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mt.closed {
		t.Error("transport not closed")
	}
}
