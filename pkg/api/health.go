package api

import (
	"context"
	"net/http"
)

// HealthStatus is the backend liveness report.
type HealthStatus struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp,omitempty"`
	Uptime    float64 `json:"uptime,omitempty"`
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	req := request{op: "health", method: http.MethodGet, path: "/health"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
