package store

import (
	"time"

	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Action is a state change. The set of actions is closed: only the types in
// this package implement it.
type Action interface {
	action()
}

// Request lifecycle.

// Pending starts a request for Op. It clears the owning slice's error and
// sets its loading flag.
type Pending struct {
	Op  Op
	Req RequestToken
}

// Rejected ends a request with a failure.
type Rejected struct {
	Op      Op
	Req     RequestToken
	Failure *Failure
}

// Order slice.

// ClearOrder resets the order slice and abandons its in-flight requests.
type ClearOrder struct{}

// ClearOrderError clears only the order slice error.
type ClearOrderError struct{}

// ClearTracking drops the tracking snapshot and abandons an in-flight
// tracking fetch.
type ClearTracking struct{}

// SetInvoiceURL sets the invoice artifact reference.
type SetInvoiceURL struct {
	URL string
}

// ApplyStatusEvent patches the held order state with a real-time status
// change. A zero ReceivedAt is filled with the store clock on dispatch.
type ApplyStatusEvent struct {
	Event      order.StatusEvent
	ReceivedAt time.Time
}

// OrderCreated fulfils OpCreateOrder.
type OrderCreated struct {
	Req   RequestToken
	Order *order.Order
}

// OrderFetched fulfils OpFetchOrder.
type OrderFetched struct {
	Req   RequestToken
	Order *order.Order
}

// TrackingFetched fulfils OpFetchTracking.
type TrackingFetched struct {
	Req      RequestToken
	Snapshot *order.TrackingSnapshot
}

// OrderStatusUpdated fulfils OpUpdateOrderStatus.
type OrderStatusUpdated struct {
	Req    RequestToken
	Change order.StatusChange
}

// Admin slice.

// Logout clears every admin-owned value and abandons in-flight admin fetches.
type Logout struct{}

// ClearAdminError clears only the admin slice error.
type ClearAdminError struct{}

// SetToken marks the session authenticated with the given credential.
type SetToken struct {
	Token string
}

// InitializeAuth seeds the session from a persisted credential. An empty
// token leaves the session unauthenticated.
type InitializeAuth struct {
	Token string
}

// LoggedIn fulfils OpLogin.
type LoggedIn struct {
	Req    RequestToken
	Result admin.LoginResult
}

// SessionVerified fulfils OpVerifySession.
type SessionVerified struct {
	Req       RequestToken
	Dashboard admin.Dashboard
}

// DashboardFetched fulfils OpFetchDashboard.
type DashboardFetched struct {
	Req       RequestToken
	Dashboard admin.Dashboard
}

// LogsFetched fulfils OpFetchLogs.
type LogsFetched struct {
	Req  RequestToken
	Page admin.LogPage
}

// OrdersFetched fulfils OpFetchOrders.
type OrdersFetched struct {
	Req    RequestToken
	Orders []order.Order
}

// FleetFetched fulfils OpFetchFleet.
type FleetFetched struct {
	Req   RequestToken
	Units []fleet.Unit
}

// AdminOrderStatusUpdated fulfils OpUpdateOrderStatusAdmin.
type AdminOrderStatusUpdated struct {
	Req    RequestToken
	Change order.StatusChange
}

// FleetUnitUpdated fulfils OpUpdateFleetUnit.
type FleetUnitUpdated struct {
	Req    RequestToken
	ID     fleet.ID
	Update fleet.Update
}

// UI slice.

type ToggleSidebar struct{}

type SetSidebarOpen struct {
	Open bool
}

type SetCurrentPage struct {
	Page string
}

type SetTheme struct {
	Theme string
}

// AddNotification appends to the notification history. Empty ID and zero
// Timestamp are filled on dispatch.
type AddNotification struct {
	Notification Notification
}

type RemoveNotification struct {
	ID string
}

type ClearNotifications struct{}

// SetLoading sets a named loading flag.
type SetLoading struct {
	Key     string
	Loading bool
}

type SetGlobalLoading struct {
	Loading bool
}

type OpenModal struct {
	Name string
}

type CloseModal struct {
	Name string
}

// ShowSnackbar replaces the banner. An empty severity means info.
type ShowSnackbar struct {
	Message  string
	Severity Severity
}

// HideSnackbar closes the banner and keeps its last message.
type HideSnackbar struct{}

// ResetUI restores the initial UI state.
type ResetUI struct{}

func (Pending) action()                 {}
func (Rejected) action()                {}
func (ClearOrder) action()              {}
func (ClearOrderError) action()         {}
func (ClearTracking) action()           {}
func (SetInvoiceURL) action()           {}
func (ApplyStatusEvent) action()        {}
func (OrderCreated) action()            {}
func (OrderFetched) action()            {}
func (TrackingFetched) action()         {}
func (OrderStatusUpdated) action()      {}
func (Logout) action()                  {}
func (ClearAdminError) action()         {}
func (SetToken) action()                {}
func (InitializeAuth) action()          {}
func (LoggedIn) action()                {}
func (SessionVerified) action()         {}
func (DashboardFetched) action()        {}
func (LogsFetched) action()             {}
func (OrdersFetched) action()           {}
func (FleetFetched) action()            {}
func (AdminOrderStatusUpdated) action() {}
func (FleetUnitUpdated) action()        {}
func (ToggleSidebar) action()           {}
func (SetSidebarOpen) action()          {}
func (SetCurrentPage) action()          {}
func (SetTheme) action()                {}
func (AddNotification) action()         {}
func (RemoveNotification) action()      {}
func (ClearNotifications) action()      {}
func (SetLoading) action()              {}
func (SetGlobalLoading) action()        {}
func (OpenModal) action()               {}
func (CloseModal) action()              {}
func (ShowSnackbar) action()            {}
func (HideSnackbar) action()            {}
func (ResetUI) action()                 {}
