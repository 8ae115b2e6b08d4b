package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Mobiles lists every service unit.
func (c *Client) Mobiles(ctx context.Context) ([]fleet.Unit, error) {
	var out []fleet.Unit
	req := request{op: "mobiles", method: http.MethodGet, path: "/mobiles"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableMobiles lists the units free to serve the given location.
func (c *Client) AvailableMobiles(ctx context.Context, lat, lng float64) ([]fleet.Unit, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	var out []fleet.Unit
	req := request{op: "available_mobiles", method: http.MethodGet, path: "/mobiles/available", query: query}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mobile fetches one service unit.
func (c *Client) Mobile(ctx context.Context, id fleet.ID) (*fleet.Unit, error) {
	var out fleet.Unit
	req := request{op: "mobile", method: http.MethodGet, path: "/mobiles/" + segment(id.String())}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMobileLocation reports a unit's position.
func (c *Client) UpdateMobileLocation(ctx context.Context, id fleet.ID, at order.Coordinate) error {
	req, err := jsonRequest("update_mobile_location", http.MethodPatch, "/mobiles/"+segment(id.String())+"/location", at)
	if err != nil {
		return err
	}
	return c.call(ctx, req, nil)
}

// UpdateMobileAvailability marks a unit available or busy.
func (c *Client) UpdateMobileAvailability(ctx context.Context, id fleet.ID, change fleet.AvailabilityChange) error {
	req, err := jsonRequest("update_mobile_availability", http.MethodPatch, "/mobiles/"+segment(id.String())+"/availability", change)
	if err != nil {
		return err
	}
	return c.call(ctx, req, nil)
}
