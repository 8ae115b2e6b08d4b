package store

import (
	"slices"

	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// AdminState is the operator console slice. Verified is set once the
// backend has accepted the held credential.
type AdminState struct {
	IsAuthenticated bool
	Verified        bool
	Profile         *admin.Profile
	Token           string
	Dashboard       admin.Dashboard
	Logs            []order.ActivityLogEntry
	LogsPagination  admin.Pagination
	Orders          []order.Order
	Fleet           []fleet.Unit
	Loading         bool
	Error           *Failure

	requests requestTokens
}

func initialAdminState() AdminState {
	return AdminState{LogsPagination: admin.DefaultLogPagination()}
}

// adminDataSlots are abandoned on logout. An in-flight login is kept.
var adminDataSlots = []slot{slotDashboard, slotLogs, slotAdminOrders, slotFleet}

func reduceAdmin(s AdminState, a Action, cfg config) AdminState {
	switch a := a.(type) {
	case Pending:
		if !a.Op.isAdmin() {
			return s
		}
		s.requests = s.requests.begin(a.Op, a.Req)
		s.Loading = true
		s.Error = nil
	case Rejected:
		if !a.Op.isAdmin() || !s.commits(a.Op, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = a.Failure
		if a.Op == OpLogin {
			s.IsAuthenticated = false
		}
	case LoggedIn:
		if !s.commits(OpLogin, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.IsAuthenticated = true
		s.Verified = true
		s.Profile = a.Result.Admin
		s.Token = a.Result.Token
	case SessionVerified:
		if !s.commits(OpVerifySession, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Verified = true
		s.Dashboard = a.Dashboard
	case DashboardFetched:
		if !s.commits(OpFetchDashboard, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Dashboard = a.Dashboard
	case LogsFetched:
		if !s.commits(OpFetchLogs, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Logs = slices.Clone(a.Page.Logs)
		s.LogsPagination = a.Page.Pagination
	case OrdersFetched:
		if !s.commits(OpFetchOrders, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Orders = slices.Clone(a.Orders)
	case FleetFetched:
		if !s.commits(OpFetchFleet, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Fleet = slices.Clone(a.Units)
	case AdminOrderStatusUpdated:
		if !s.commits(OpUpdateOrderStatusAdmin, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		if i := slices.IndexFunc(s.Orders, func(o order.Order) bool { return o.ID == a.Change.OrderID }); i >= 0 {
			orders := slices.Clone(s.Orders)
			orders[i].Status = a.Change.Status
			s.Orders = orders
		}
	case FleetUnitUpdated:
		if !s.commits(OpUpdateFleetUnit, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		if i := slices.IndexFunc(s.Fleet, func(u fleet.Unit) bool { return u.ID == a.ID }); i >= 0 {
			units := slices.Clone(s.Fleet)
			units[i] = a.Update.Apply(units[i])
			s.Fleet = units
		}
	case Logout:
		requests := s.requests.invalidate(adminDataSlots...)
		s = initialAdminState()
		s.requests = requests
	case ClearAdminError:
		s.Error = nil
	case SetToken:
		s.Token = a.Token
		s.IsAuthenticated = true
		s.Verified = false
	case InitializeAuth:
		if a.Token != "" {
			s.Token = a.Token
			s.IsAuthenticated = true
			s.Verified = false
		}
	}
	return s
}

func (s AdminState) commits(op Op, req RequestToken, cfg config) bool {
	return cfg.staleResponses || s.requests.current(op, req)
}
