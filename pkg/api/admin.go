package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Login exchanges operator credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds admin.Credentials) (*admin.LoginResult, error) {
	req, err := jsonRequest("login", http.MethodPost, "/admin/login", creds)
	if err != nil {
		return nil, err
	}
	var out admin.LoginResult
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard fetches the admin aggregate.
func (c *Client) Dashboard(ctx context.Context) (admin.Dashboard, error) {
	var out admin.Dashboard
	req := request{op: "dashboard", method: http.MethodGet, path: "/admin/dashboard"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActivityLogs fetches one page of the activity log.
func (c *Client) ActivityLogs(ctx context.Context, q admin.LogQuery) (*admin.LogPage, error) {
	q = q.Normalize()
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("limit", strconv.Itoa(q.Limit))
	if !q.OrderID.IsZero() {
		query.Set("orderId", q.OrderID.String())
	}
	var out admin.LogPage
	req := request{op: "activity_logs", method: http.MethodGet, path: "/admin/logs", query: query}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminOrders lists orders matching the filter.
func (c *Client) AdminOrders(ctx context.Context, f admin.OrderFilter) ([]order.Order, error) {
	f = f.Normalize()
	query := url.Values{}
	query.Set("page", strconv.Itoa(f.Page))
	query.Set("limit", strconv.Itoa(f.Limit))
	if f.Status != "" {
		query.Set("status", f.Status.String())
	}
	if f.MobileID != "" {
		query.Set("mobileId", f.MobileID)
	}
	var out []order.Order
	req := request{op: "admin_orders", method: http.MethodGet, path: "/admin/orders", query: query}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminFleet lists every service unit with operator detail.
func (c *Client) AdminFleet(ctx context.Context) ([]fleet.Unit, error) {
	var out []fleet.Unit
	req := request{op: "admin_fleet", method: http.MethodGet, path: "/admin/mobiles"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatusAdmin changes an order's status through the admin endpoint.
func (c *Client) UpdateOrderStatusAdmin(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error) {
	return c.statusChange(ctx, "admin_update_order_status", "/admin/orders/"+segment(id.String())+"/status", id, status, notes)
}

// UpdateFleetUnit applies a partial update to a service unit.
func (c *Client) UpdateFleetUnit(ctx context.Context, id fleet.ID, upd fleet.Update) (*fleet.UpdateResult, error) {
	req, err := jsonRequest("update_fleet_unit", http.MethodPatch, "/admin/mobiles/"+segment(id.String()), upd)
	if err != nil {
		return nil, err
	}
	var out fleet.UpdateResult
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.MobileID == "" {
		out.MobileID = id
	}
	return &out, nil
}
