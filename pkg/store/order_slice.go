package store

import (
	"maps"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// OrderState is the customer-facing order slice. Current and Tracking are
// never mutated in place; reducers replace them with new values.
type OrderState struct {
	Current    *order.Order
	Tracking   *order.TrackingSnapshot
	InvoiceURL string
	Loading    bool
	Error      *Failure
	Success    bool

	requests requestTokens
	lastSeq  map[order.ID]uint64
}

var orderSlots = []slot{slotCurrentOrder, slotTracking}

func reduceOrder(s OrderState, a Action, cfg config) OrderState {
	switch a := a.(type) {
	case Pending:
		if a.Op.isAdmin() {
			return s
		}
		s.requests = s.requests.begin(a.Op, a.Req)
		s.Loading = true
		s.Error = nil
		if a.Op == OpCreateOrder {
			s.Success = false
		}
	case Rejected:
		if a.Op.isAdmin() || !s.commits(a.Op, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = a.Failure
		if a.Op == OpCreateOrder {
			s.Success = false
		}
	case OrderCreated:
		if !s.commits(OpCreateOrder, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Current = a.Order.Clone()
		s.InvoiceURL = ""
		if a.Order != nil {
			s.InvoiceURL = a.Order.InvoicePath
		}
		s.Success = true
	case OrderFetched:
		if !s.commits(OpFetchOrder, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Current = a.Order.Clone()
	case TrackingFetched:
		if !s.commits(OpFetchTracking, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		s.Tracking = a.Snapshot.Clone()
	case OrderStatusUpdated:
		if !s.commits(OpUpdateOrderStatus, a.Req, cfg) {
			return s
		}
		s.Loading = false
		s.Error = nil
		if s.Current != nil {
			next := s.Current.WithStatus(a.Change.Status)
			s.Current = &next
		}
		if s.Tracking != nil {
			next := s.Tracking.Clone()
			next.Order.Status = a.Change.Status
			s.Tracking = next
		}
	case ClearOrder:
		requests := s.requests.invalidate(orderSlots...)
		s = OrderState{requests: requests, lastSeq: s.lastSeq}
	case ClearOrderError:
		s.Error = nil
	case ClearTracking:
		s.Tracking = nil
		s.Loading = false
		s.Error = nil
		s.requests = s.requests.invalidate(slotTracking)
	case SetInvoiceURL:
		s.InvoiceURL = a.URL
	case ApplyStatusEvent:
		return s.applyStatusEvent(a, cfg)
	}
	return s
}

func (s OrderState) commits(op Op, req RequestToken, cfg config) bool {
	return cfg.staleResponses || s.requests.current(op, req)
}

// applyStatusEvent patches the tracking snapshot and the current order when
// they hold the event's order. The two patches are independent.
func (s OrderState) applyStatusEvent(a ApplyStatusEvent, cfg config) OrderState {
	ev := a.Event
	if ev.Seq > 0 {
		if ev.Seq <= s.lastSeq[ev.OrderID] {
			return s
		}
		seqs := maps.Clone(s.lastSeq)
		if seqs == nil {
			seqs = make(map[order.ID]uint64)
		}
		seqs[ev.OrderID] = ev.Seq
		s.lastSeq = seqs
	}

	if s.Tracking != nil && s.Tracking.Order.ID == ev.OrderID {
		if !cfg.lifecycleOrdering || order.CanAdvance(s.Tracking.Order.Status, ev.Status) {
			s.Tracking = s.Tracking.WithEvent(ev.Status, a.ReceivedAt)
		}
	}
	if s.Current != nil && s.Current.ID == ev.OrderID {
		if !cfg.lifecycleOrdering || order.CanAdvance(s.Current.Status, ev.Status) {
			next := s.Current.WithStatus(ev.Status)
			s.Current = &next
		}
	}
	return s
}
