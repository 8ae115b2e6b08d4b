package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
	"github.com/felixgeelhaar/carwash/pkg/realtime"
)

// EventSource is the real-time connection as seen by the store.
type EventSource interface {
	Handle(name string, fn realtime.HandlerFunc, eventTypes ...string)
	Remove(name string)
	Subscribe(id order.ID)
	Unsubscribe(id order.ID)
}

const (
	handlerStatus      = "store.status"
	handlerAdminStatus = "store.admin_status"
	handlerCreated     = "store.created"
)

// Bridge routes real-time events into a store.
type Bridge struct {
	src   EventSource
	store *Store
}

// BindRealtime registers the store's event handlers on src.
func BindRealtime(src EventSource, s *Store) *Bridge {
	b := &Bridge{src: src, store: s}
	src.Handle(handlerStatus, b.onStatus, realtime.EventStatusUpdate)
	src.Handle(handlerAdminStatus, b.onAdminStatus, realtime.EventAdminStatusUpdate)
	src.Handle(handlerCreated, b.onCreated, realtime.EventOrderCreated)
	return b
}

// Watch subscribes to an order's room. The returned function unsubscribes
// and may be called more than once.
func (b *Bridge) Watch(id order.ID) func() {
	b.src.Subscribe(id)
	var once sync.Once
	return func() {
		once.Do(func() { b.src.Unsubscribe(id) })
	}
}

// Unbind removes the store's handlers from the source.
func (b *Bridge) Unbind() {
	b.src.Remove(handlerStatus)
	b.src.Remove(handlerAdminStatus)
	b.src.Remove(handlerCreated)
}

func (b *Bridge) onStatus(_ context.Context, ev realtime.Event) error {
	var se order.StatusEvent
	if err := ev.Decode(&se); err != nil {
		return err
	}
	b.store.Dispatch(ApplyStatusEvent{Event: se})
	severity := SeverityInfo
	if se.Status == order.StatusCompleted {
		severity = SeveritySuccess
	}
	b.store.Dispatch(ShowSnackbar{Message: order.StatusMessage(se.Status), Severity: severity})
	return nil
}

func (b *Bridge) onAdminStatus(_ context.Context, ev realtime.Event) error {
	var se order.StatusEvent
	if err := ev.Decode(&se); err != nil {
		return err
	}
	b.store.Dispatch(ApplyStatusEvent{Event: se})
	return nil
}

func (b *Bridge) onCreated(_ context.Context, ev realtime.Event) error {
	var ce order.CreatedEvent
	if err := ev.Decode(&ce); err != nil {
		return err
	}
	b.store.Dispatch(ShowSnackbar{Message: fmt.Sprintf("New order #%s created", ce.OrderID), Severity: SeverityInfo})
	return nil
}
