package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/validate"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

type Server struct {
	mcpServer *mcp.Server
	services  *wiring.Services
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

var toolNames = []string{
	"carwash_health",
	"carwash_estimate_price",
	"carwash_create_order",
	"carwash_get_order",
	"carwash_track_order",
	"carwash_admin_orders",
	"carwash_fleet",
}

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// apiErr turns a client error into a friendly message, keeping the server's
// message when one was returned.
func apiErr(action string, err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return mcpErr(verr.Error())
	}
	var apiError *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, wiring.ErrNotLoggedIn):
		return mcpErr(fmt.Sprintf("Failed to %s. Log in with 'carwash admin login' first.", action))
	case errors.Is(err, api.ErrNotFound):
		return mcpErr(fmt.Sprintf("Failed to %s: not found.", action))
	case errors.As(err, &apiError) && apiError.Status > 0:
		return mcpErr(fmt.Sprintf("Failed to %s: %s", action, apiError.Message))
	default:
		return mcpErr(fmt.Sprintf("Failed to %s. Check that the backend is reachable.", action))
	}
}

func NewServer(services *wiring.Services) (*Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services are nil")
	}

	info := mcp.ServerInfo{
		Name:    "carwash",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Carwash MCP Server"),
			mcp.WithDescription("Book mobile car washes, track orders and inspect the fleet."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Estimate a price before creating an order. Admin tools need a stored login."),
		),
		services: services,
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

type BookingArgs struct {
	VehicleNumber   string   `json:"vehicle_number" jsonschema:"description=Licence plate of the vehicle"`
	VehicleType     string   `json:"vehicle_type" jsonschema:"description=One of sedan, suv, truck, van, motorcycle"`
	ServiceType     string   `json:"service_type" jsonschema:"description=Base service: exterior, interior or exterior+interior"`
	AddOns          []string `json:"add_ons,omitempty" jsonschema:"description=Optional extras: polish, wax"`
	RequestedAt     string   `json:"requested_at" jsonschema:"description=Requested start time in RFC 3339"`
	LocationLat     float64  `json:"location_lat" jsonschema:"description=Latitude of the service location"`
	LocationLng     float64  `json:"location_lng" jsonschema:"description=Longitude of the service location"`
	LocationAddress string   `json:"location_address" jsonschema:"description=Street address of the service location"`
	DirtLevel       int      `json:"dirt_level,omitempty" jsonschema:"description=Dirt level from 1 to 5 (default 3)"`
	CustomerName    string   `json:"customer_name,omitempty" jsonschema:"description=Customer name"`
	CustomerPhone   string   `json:"customer_phone,omitempty" jsonschema:"description=Customer phone number"`
	CustomerEmail   string   `json:"customer_email" jsonschema:"description=Customer email for the invoice"`
}

func (a BookingArgs) request() (order.Request, error) {
	var at time.Time
	if a.RequestedAt != "" {
		t, err := time.Parse(time.RFC3339, a.RequestedAt)
		if err != nil {
			return order.Request{}, mcpErr("requested_at must be an RFC 3339 time, e.g. 2026-05-01T09:30:00Z")
		}
		at = t
	}
	return order.Request{
		VehicleNumber:      a.VehicleNumber,
		VehicleType:        a.VehicleType,
		ServiceType:        a.ServiceType,
		AdditionalServices: a.AddOns,
		RequestedAt:        at,
		LocationLat:        a.LocationLat,
		LocationLng:        a.LocationLng,
		LocationAddress:    a.LocationAddress,
		DirtLevel:          a.DirtLevel,
		CustomerName:       a.CustomerName,
		CustomerPhone:      a.CustomerPhone,
		CustomerEmail:      a.CustomerEmail,
	}, nil
}

type OrderArgs struct {
	OrderID string `json:"order_id" jsonschema:"description=The order number"`
}

type AdminOrdersArgs struct {
	Status   string `json:"status,omitempty" jsonschema:"description=Filter by status (pending, assigned, on_way, washing, completed, cancelled)"`
	MobileID string `json:"mobile_id,omitempty" jsonschema:"description=Filter by mobile unit id"`
	Page     int    `json:"page,omitempty" jsonschema:"description=Page number (default 1)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"description=Page size (default 20)"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("carwash_health").
		Description("Check that the booking backend is up").
		Handler(s.handleHealth)

	s.mcpServer.Tool("carwash_estimate_price").
		Description("Estimate price and duration for a booking without placing it").
		Handler(s.handleEstimate)

	s.mcpServer.Tool("carwash_create_order").
		Description("Place a booking and return the created order").
		Handler(s.handleCreateOrder)

	s.mcpServer.Tool("carwash_get_order").
		Description("Retrieve an order by number").
		Handler(s.handleGetOrder)

	s.mcpServer.Tool("carwash_track_order").
		Description("Retrieve an order with its activity log and lifecycle progress").
		Handler(s.handleTrackOrder)

	s.mcpServer.Tool("carwash_admin_orders").
		Description("List orders with optional status and mobile unit filters (admin)").
		Handler(s.handleAdminOrders)

	s.mcpServer.Tool("carwash_fleet").
		Description("List every mobile unit with availability and location (admin)").
		Handler(s.handleFleet)
}

func (s *Server) handleHealth(ctx context.Context, _ struct{}) (any, error) {
	h, err := s.services.API.Health(ctx)
	if err != nil {
		return nil, apiErr("reach the backend", err)
	}
	return h, nil
}

func (s *Server) handleEstimate(ctx context.Context, args BookingArgs) (any, error) {
	req, err := args.request()
	if err != nil {
		return nil, err
	}
	est, err := s.services.API.EstimatePrice(ctx, req)
	if err != nil {
		return nil, apiErr("estimate the price", err)
	}
	return est, nil
}

func (s *Server) handleCreateOrder(ctx context.Context, args BookingArgs) (any, error) {
	req, err := args.request()
	if err != nil {
		return nil, err
	}
	if err := validate.Booking(req); err != nil {
		return nil, apiErr("create the order", err)
	}
	o, err := s.services.Orders.Create(ctx, req)
	if err != nil {
		return nil, apiErr("create the order", err)
	}
	return o, nil
}

func (s *Server) handleGetOrder(ctx context.Context, args OrderArgs) (any, error) {
	id, err := order.ParseID(args.OrderID)
	if err != nil {
		return nil, mcpErr("order_id is required")
	}
	o, err := s.services.Orders.Fetch(ctx, id)
	if err != nil {
		return nil, apiErr("load order "+id.String(), err)
	}
	return o, nil
}

type trackingResponse struct {
	*order.TrackingSnapshot
	Progress []order.Step `json:"progress"`
}

func (s *Server) handleTrackOrder(ctx context.Context, args OrderArgs) (any, error) {
	id, err := order.ParseID(args.OrderID)
	if err != nil {
		return nil, mcpErr("order_id is required")
	}
	snap, err := s.services.Orders.FetchTracking(ctx, id)
	if err != nil {
		return nil, apiErr("track order "+id.String(), err)
	}
	return trackingResponse{TrackingSnapshot: snap, Progress: order.Steps(snap.Order.Status)}, nil
}

func (s *Server) handleAdminOrders(ctx context.Context, args AdminOrdersArgs) (any, error) {
	status := order.Status(strings.TrimSpace(args.Status))
	if status != "" && !status.IsValid() {
		return nil, mcpErr(fmt.Sprintf("unknown status %q", args.Status))
	}
	if err := s.services.AdminSession(ctx); err != nil {
		return nil, apiErr("list orders", err)
	}
	orders, err := s.services.Admin.FetchOrders(ctx, admin.OrderFilter{
		Status:   status,
		MobileID: args.MobileID,
		Page:     args.Page,
		Limit:    args.Limit,
	})
	if err != nil {
		return nil, apiErr("list orders", err)
	}
	return orders, nil
}

func (s *Server) handleFleet(ctx context.Context, _ struct{}) (any, error) {
	if err := s.services.AdminSession(ctx); err != nil {
		return nil, apiErr("list the fleet", err)
	}
	units, err := s.services.Admin.FetchFleet(ctx)
	if err != nil {
		return nil, apiErr("list the fleet", err)
	}
	return units, nil
}

type stateSnapshot struct {
	CurrentOrder  *order.Order            `json:"current_order,omitempty"`
	Tracking      *order.TrackingSnapshot `json:"tracking,omitempty"`
	Authenticated bool                    `json:"authenticated"`
	Verified      bool                    `json:"verified"`
	Admin         *admin.Profile          `json:"admin,omitempty"`
}

func (s *Server) snapshot() stateSnapshot {
	st := s.services.Store.State()
	return stateSnapshot{
		CurrentOrder:  st.Order.Current,
		Tracking:      st.Order.Tracking,
		Authenticated: st.Admin.IsAuthenticated,
		Verified:      st.Admin.Verified,
		Admin:         st.Admin.Profile,
	}
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
