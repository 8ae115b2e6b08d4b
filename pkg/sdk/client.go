package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"

	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

const (
	schemaURI = "carwash://schema"
	stateURI  = "carwash://state"
)

// Client is a typed Go client for the carwash MCP server.
type Client struct {
	mcp      *client.Client
	retryCfg retry.Config
	timeout  time.Duration
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		mcp:     client.New(transport, client.WithTimeout(o.timeout)),
		timeout: o.timeout,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// call invokes a tool with retry. Error results are returned as *ToolError.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	r := retry.New[*client.ToolResult](c.retryCfg)
	result, err := r.Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

// unmarshalText extracts Content[0].Text from a tool result and unmarshals it as JSON.
func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

// textResult extracts Content[0].Text from a tool result.
func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

func callJSON[T any](ctx context.Context, c *Client, tool string, args map[string]any) (*T, error) {
	res, err := c.call(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[T](res)
}

func readJSON[T any](ctx context.Context, c *Client, uri string) (*T, error) {
	rc, err := c.mcp.ReadResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	var v T
	if err := json.Unmarshal([]byte(rc.Text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", uri, err)
	}
	return &v, nil
}

// --- Schema ---

// GetSchema reads the schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	return readJSON[SchemaInfo](ctx, c, schemaURI)
}

// GetState reads the server's current order and session snapshot.
func (c *Client) GetState(ctx context.Context) (*State, error) {
	return readJSON[State](ctx, c, stateURI)
}

// Compatible checks if the server schema is compatible with this SDK version.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	serverMajor := majorVersion(info.SchemaVersion)
	if serverMajor != SupportedSchemaMajor {
		return fmt.Errorf("incompatible schema: server=%s (major %s), sdk supports major %s",
			info.SchemaVersion, serverMajor, SupportedSchemaMajor)
	}
	return nil
}

// majorVersion extracts the major version from a semver string.
func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// --- Orders ---

// Health checks that the booking backend is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return callJSON[Health](ctx, c, "carwash_health", nil)
}

// EstimatePrice quotes a booking without placing it.
func (c *Client) EstimatePrice(ctx context.Context, b Booking) (*order.Estimate, error) {
	return callJSON[order.Estimate](ctx, c, "carwash_estimate_price", b.args())
}

// CreateOrder places a booking.
func (c *Client) CreateOrder(ctx context.Context, b Booking) (*order.Order, error) {
	return callJSON[order.Order](ctx, c, "carwash_create_order", b.args())
}

// GetOrder retrieves an order by number.
func (c *Client) GetOrder(ctx context.Context, id order.ID) (*order.Order, error) {
	return callJSON[order.Order](ctx, c, "carwash_get_order", map[string]any{"order_id": id.String()})
}

// TrackOrder retrieves an order with its activity log and progress.
func (c *Client) TrackOrder(ctx context.Context, id order.ID) (*Tracking, error) {
	return callJSON[Tracking](ctx, c, "carwash_track_order", map[string]any{"order_id": id.String()})
}

// --- Admin ---

// AdminOrders lists orders. The server must hold an operator login.
func (c *Client) AdminOrders(ctx context.Context, f OrdersFilter) ([]order.Order, error) {
	args := map[string]any{}
	if f.Status != "" {
		args["status"] = string(f.Status)
	}
	if f.MobileID != "" {
		args["mobile_id"] = f.MobileID
	}
	if f.Page > 0 {
		args["page"] = f.Page
	}
	if f.Limit > 0 {
		args["limit"] = f.Limit
	}
	orders, err := callJSON[[]order.Order](ctx, c, "carwash_admin_orders", args)
	if err != nil {
		return nil, err
	}
	return *orders, nil
}

// Fleet lists every mobile unit. The server must hold an operator login.
func (c *Client) Fleet(ctx context.Context) ([]fleet.Unit, error) {
	units, err := callJSON[[]fleet.Unit](ctx, c, "carwash_fleet", nil)
	if err != nil {
		return nil, err
	}
	return *units, nil
}
