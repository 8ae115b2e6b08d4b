package api

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// CreateOrder submits a booking.
func (c *Client) CreateOrder(ctx context.Context, in order.Request) (*order.Order, error) {
	req, err := jsonRequest("create_order", http.MethodPost, "/orders", in)
	if err != nil {
		return nil, err
	}
	var out order.Order
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EstimatePrice asks the backend to quote a booking without creating it.
func (c *Client) EstimatePrice(ctx context.Context, in order.Request) (*order.Estimate, error) {
	req, err := jsonRequest("estimate_price", http.MethodPost, "/orders/estimate", in)
	if err != nil {
		return nil, err
	}
	var out order.Estimate
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id order.ID) (*order.Order, error) {
	var out order.Order
	req := request{op: "get_order", method: http.MethodGet, path: "/orders/" + segment(id.String())}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTracking fetches an order together with its activity log.
func (c *Client) GetTracking(ctx context.Context, id order.ID) (*order.TrackingSnapshot, error) {
	var out order.TrackingSnapshot
	req := request{op: "get_tracking", method: http.MethodGet, path: "/orders/" + segment(id.String()) + "/track"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus changes an order's status through the public endpoint.
func (c *Client) UpdateOrderStatus(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error) {
	return c.statusChange(ctx, "update_order_status", "/orders/"+segment(id.String())+"/status", id, status, notes)
}

func (c *Client) statusChange(ctx context.Context, op, path string, id order.ID, status order.Status, notes string) (*order.StatusChange, error) {
	req, err := jsonRequest(op, http.MethodPatch, path, admin.StatusUpdate{Status: status, Notes: notes})
	if err != nil {
		return nil, err
	}
	var out order.StatusChange
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.OrderID.IsZero() {
		out.OrderID = id
	}
	if out.Status == "" {
		out.Status = status
	}
	return &out, nil
}
