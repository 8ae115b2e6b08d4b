package realtime

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Wildcard registers a handler for every event type.
const Wildcard = "*"

// HandlerFunc handles one inbound event.
type HandlerFunc func(ctx context.Context, ev Event) error

type namedHandler struct {
	name    string
	handler HandlerFunc
}

// Dispatcher routes events to the handlers registered for their type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError runs every handler even when an earlier one fails.
	ContinueOnError bool
}

// NewDispatcher creates an empty dispatcher that runs every handler.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers:        make(map[string][]namedHandler),
		ContinueOnError: true,
	}
}

// Register adds a handler for the given event types. With no types the
// handler receives every event.
func (d *Dispatcher) Register(name string, handler HandlerFunc, eventTypes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(eventTypes) == 0 {
		eventTypes = []string{Wildcard}
	}
	nh := namedHandler{name: name, handler: handler}
	for _, t := range eventTypes {
		d.handlers[t] = append(d.handlers[t], nh)
	}
}

// Remove drops every handler registered under name.
func (d *Dispatcher) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for t, hs := range d.handlers {
		hs = slices.DeleteFunc(slices.Clone(hs), func(h namedHandler) bool { return h.name == name })
		if len(hs) == 0 {
			delete(d.handlers, t)
			continue
		}
		d.handlers[t] = hs
	}
}

// Dispatch runs the handlers for ev.Type followed by the wildcard handlers.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.mu.RLock()
	var handlers []namedHandler
	handlers = append(handlers, d.handlers[ev.Type]...)
	handlers = append(handlers, d.handlers[Wildcard]...)
	d.mu.RUnlock()

	var errs []error
	for _, nh := range handlers {
		if err := nh.handler(ctx, ev); err != nil {
			handlerErr := fmt.Errorf("handler %s failed for event %s: %w", nh.name, ev.Type, err)
			if !d.ContinueOnError {
				return handlerErr
			}
			errs = append(errs, handlerErr)
		}
	}
	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// HandlerCount returns how many handlers would receive an event of the type.
func (d *Dispatcher) HandlerCount(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	count := len(d.handlers[eventType])
	if eventType != Wildcard {
		count += len(d.handlers[Wildcard])
	}
	return count
}

// DispatchError collects the failures of one dispatch.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap returns the collected errors for errors.Is/As support.
func (e *DispatchError) Unwrap() []error {
	return e.Errors
}
