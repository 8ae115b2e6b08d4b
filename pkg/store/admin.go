package store

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// LoginPage is the page shown after the session is dropped.
const LoginPage = "admin/login"

// AdminAPI is the part of the API client the admin controller needs.
type AdminAPI interface {
	Login(ctx context.Context, creds admin.Credentials) (*admin.LoginResult, error)
	Dashboard(ctx context.Context) (admin.Dashboard, error)
	ActivityLogs(ctx context.Context, q admin.LogQuery) (*admin.LogPage, error)
	AdminOrders(ctx context.Context, f admin.OrderFilter) ([]order.Order, error)
	AdminFleet(ctx context.Context) ([]fleet.Unit, error)
	UpdateOrderStatusAdmin(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error)
	UpdateFleetUnit(ctx context.Context, id fleet.ID, upd fleet.Update) (*fleet.UpdateResult, error)
}

// CredentialStore persists the admin bearer token. Load returns an empty
// token when none is stored.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Admin runs the operator console lifecycles against a store.
type Admin struct {
	store *Store
	api   AdminAPI
	creds CredentialStore
}

// NewAdmin creates an admin controller.
func NewAdmin(s *Store, api AdminAPI, creds CredentialStore) *Admin {
	return &Admin{store: s, api: api, creds: creds}
}

// Login authenticates and persists the issued token. Nothing is persisted
// when the credentials are rejected.
func (a *Admin) Login(ctx context.Context, creds admin.Credentials) (*admin.LoginResult, error) {
	req := a.store.Begin(OpLogin)
	res, err := a.api.Login(ctx, creds)
	if err == nil {
		if saveErr := a.creds.Save(res.Token); saveErr != nil {
			err = fmt.Errorf("persist credential: %w", saveErr)
		}
	}
	if err != nil {
		a.store.Dispatch(Rejected{Op: OpLogin, Req: req, Failure: failureFrom(err)})
		return nil, err
	}
	a.store.Dispatch(LoggedIn{Req: req, Result: *res})
	return res, nil
}

// Logout clears the persisted credential and every admin-owned value.
func (a *Admin) Logout() error {
	err := a.creds.Clear()
	a.store.Dispatch(Logout{})
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// SetToken persists a token and marks the session authenticated.
func (a *Admin) SetToken(token string) error {
	if err := a.creds.Save(token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	a.store.Dispatch(SetToken{Token: token})
	return nil
}

// InitializeAuth seeds the session from the persisted credential. The
// session is authenticated but unverified until VerifySession succeeds.
func (a *Admin) InitializeAuth() (string, error) {
	token, err := a.creds.Load()
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	a.store.Dispatch(InitializeAuth{Token: token})
	return token, nil
}

// VerifySession confirms the held credential with an authenticated round
// trip. A rejected credential logs the session out.
func (a *Admin) VerifySession(ctx context.Context) error {
	_, err := run(ctx, a.store, OpVerifySession,
		a.api.Dashboard,
		func(req RequestToken, d admin.Dashboard) Action { return SessionVerified{Req: req, Dashboard: d} })
	if err != nil && failureFrom(err).Unauthorized() {
		_ = a.Logout()
	}
	return err
}

// FetchDashboard loads the dashboard summary.
func (a *Admin) FetchDashboard(ctx context.Context) (admin.Dashboard, error) {
	return run(ctx, a.store, OpFetchDashboard,
		a.api.Dashboard,
		func(req RequestToken, d admin.Dashboard) Action { return DashboardFetched{Req: req, Dashboard: d} })
}

// FetchLogs loads one page of the activity log.
func (a *Admin) FetchLogs(ctx context.Context, q admin.LogQuery) (*admin.LogPage, error) {
	return run(ctx, a.store, OpFetchLogs,
		func(ctx context.Context) (*admin.LogPage, error) { return a.api.ActivityLogs(ctx, q) },
		func(req RequestToken, p *admin.LogPage) Action { return LogsFetched{Req: req, Page: *p} })
}

// FetchOrders loads the filtered order list.
func (a *Admin) FetchOrders(ctx context.Context, f admin.OrderFilter) ([]order.Order, error) {
	return run(ctx, a.store, OpFetchOrders,
		func(ctx context.Context) ([]order.Order, error) { return a.api.AdminOrders(ctx, f) },
		func(req RequestToken, v []order.Order) Action { return OrdersFetched{Req: req, Orders: v} })
}

// FetchFleet loads every fleet unit.
func (a *Admin) FetchFleet(ctx context.Context) ([]fleet.Unit, error) {
	return run(ctx, a.store, OpFetchFleet,
		a.api.AdminFleet,
		func(req RequestToken, v []fleet.Unit) Action { return FleetFetched{Req: req, Units: v} })
}

// UpdateOrderStatus changes an order's status and patches the cached list.
func (a *Admin) UpdateOrderStatus(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error) {
	return run(ctx, a.store, OpUpdateOrderStatusAdmin,
		func(ctx context.Context) (*order.StatusChange, error) {
			return a.api.UpdateOrderStatusAdmin(ctx, id, status, notes)
		},
		func(req RequestToken, v *order.StatusChange) Action {
			return AdminOrderStatusUpdated{Req: req, Change: *v}
		})
}

// UpdateFleetUnit applies a partial update to a unit. The requested fields
// are merged with any the server echoes back.
func (a *Admin) UpdateFleetUnit(ctx context.Context, id fleet.ID, upd fleet.Update) (*fleet.UpdateResult, error) {
	return run(ctx, a.store, OpUpdateFleetUnit,
		func(ctx context.Context) (*fleet.UpdateResult, error) { return a.api.UpdateFleetUnit(ctx, id, upd) },
		func(req RequestToken, v *fleet.UpdateResult) Action {
			target := v.MobileID
			if target == "" {
				target = id
			}
			return FleetUnitUpdated{Req: req, ID: target, Update: upd.Merge(v.Updates)}
		})
}

// ClearError clears the admin slice error.
func (a *Admin) ClearError() {
	a.store.Dispatch(ClearAdminError{})
}

// UnauthorizedHandler returns the hook the API client calls after evicting a
// rejected credential: the session is dropped and the login page shown.
func (s *Store) UnauthorizedHandler() func() {
	return func() {
		s.Dispatch(Logout{})
		s.Dispatch(SetCurrentPage{Page: LoginPage})
	}
}
