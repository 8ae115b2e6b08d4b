package store

import (
	"context"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// OrderAPI is the part of the API client the order controller needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, in order.Request) (*order.Order, error)
	GetOrder(ctx context.Context, id order.ID) (*order.Order, error)
	GetTracking(ctx context.Context, id order.ID) (*order.TrackingSnapshot, error)
	UpdateOrderStatus(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error)
}

// run performs one request lifecycle for op: Pending, the call, then the
// fulfilled action built by done or Rejected.
func run[T any](ctx context.Context, s *Store, op Op, call func(context.Context) (T, error), done func(RequestToken, T) Action) (T, error) {
	req := s.Begin(op)
	v, err := call(ctx)
	if err != nil {
		s.Dispatch(Rejected{Op: op, Req: req, Failure: failureFrom(err)})
		var zero T
		return zero, err
	}
	s.Dispatch(done(req, v))
	return v, nil
}

// Orders runs the customer order lifecycles against a store.
type Orders struct {
	store *Store
	api   OrderAPI
}

// NewOrders creates an order controller.
func NewOrders(s *Store, api OrderAPI) *Orders {
	return &Orders{store: s, api: api}
}

// Create submits a booking and makes the created order current.
func (o *Orders) Create(ctx context.Context, in order.Request) (*order.Order, error) {
	return run(ctx, o.store, OpCreateOrder,
		func(ctx context.Context) (*order.Order, error) { return o.api.CreateOrder(ctx, in) },
		func(req RequestToken, v *order.Order) Action { return OrderCreated{Req: req, Order: v} })
}

// Fetch loads an order and makes it current.
func (o *Orders) Fetch(ctx context.Context, id order.ID) (*order.Order, error) {
	return run(ctx, o.store, OpFetchOrder,
		func(ctx context.Context) (*order.Order, error) { return o.api.GetOrder(ctx, id) },
		func(req RequestToken, v *order.Order) Action { return OrderFetched{Req: req, Order: v} })
}

// FetchTracking loads the tracking snapshot of an order, replacing the held one.
func (o *Orders) FetchTracking(ctx context.Context, id order.ID) (*order.TrackingSnapshot, error) {
	return run(ctx, o.store, OpFetchTracking,
		func(ctx context.Context) (*order.TrackingSnapshot, error) { return o.api.GetTracking(ctx, id) },
		func(req RequestToken, v *order.TrackingSnapshot) Action { return TrackingFetched{Req: req, Snapshot: v} })
}

// UpdateStatus changes an order's status and patches the held order state.
func (o *Orders) UpdateStatus(ctx context.Context, id order.ID, status order.Status, notes string) (*order.StatusChange, error) {
	return run(ctx, o.store, OpUpdateOrderStatus,
		func(ctx context.Context) (*order.StatusChange, error) {
			return o.api.UpdateOrderStatus(ctx, id, status, notes)
		},
		func(req RequestToken, v *order.StatusChange) Action {
			return OrderStatusUpdated{Req: req, Change: *v}
		})
}

// Clear resets the order slice.
func (o *Orders) Clear() {
	o.store.Dispatch(ClearOrder{})
}

// ClearTracking drops the held tracking snapshot.
func (o *Orders) ClearTracking() {
	o.store.Dispatch(ClearTracking{})
}
