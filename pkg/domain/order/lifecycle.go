package order

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle events understood by the order state machine.
const (
	EventAssign    = "assign"
	EventDepart    = "depart"
	EventStartWash = "start_wash"
	EventComplete  = "complete"
	EventCancel    = "cancel"
)

// advanceEvents maps a target status to the event that reaches it.
var advanceEvents = map[Status]string{
	StatusAssigned:  EventAssign,
	StatusOnWay:     EventDepart,
	StatusWashing:   EventStartWash,
	StatusCompleted: EventComplete,
	StatusCancelled: EventCancel,
}

// progression is the happy path shown as tracking steps.
var progression = []Status{
	StatusPending,
	StatusAssigned,
	StatusOnWay,
	StatusWashing,
	StatusCompleted,
}

type lifecycleContext struct {
	OrderID ID
}

// Lifecycle is a statekit-backed view of an order's status progression.
type Lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

// NewLifecycle builds a state machine positioned at the given status.
func NewLifecycle(id ID, initial Status) (*Lifecycle, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("invalid initial status: %s", initial)
	}

	builder := statekit.NewMachine[lifecycleContext]("order-lifecycle").
		WithInitial(statekit.StateID(initial)).
		WithContext(lifecycleContext{OrderID: id})

	builder.State(statekit.StateID(StatusPending)).
		On(EventAssign).Target(statekit.StateID(StatusAssigned)).
		On(EventCancel).Target(statekit.StateID(StatusCancelled)).
		Done()

	builder.State(statekit.StateID(StatusAssigned)).
		On(EventDepart).Target(statekit.StateID(StatusOnWay)).
		On(EventCancel).Target(statekit.StateID(StatusCancelled)).
		Done()

	builder.State(statekit.StateID(StatusOnWay)).
		On(EventStartWash).Target(statekit.StateID(StatusWashing)).
		On(EventCancel).Target(statekit.StateID(StatusCancelled)).
		Done()

	builder.State(statekit.StateID(StatusWashing)).
		On(EventComplete).Target(statekit.StateID(StatusCompleted)).
		On(EventCancel).Target(statekit.StateID(StatusCancelled)).
		Done()

	builder.State(statekit.StateID(StatusCompleted)).Done()
	builder.State(statekit.StateID(StatusCancelled)).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build order lifecycle: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Lifecycle{interpreter: interpreter}, nil
}

// Current returns the status the machine is in.
func (l *Lifecycle) Current() Status {
	return Status(l.interpreter.State().Value)
}

// Send applies a lifecycle event.
func (l *Lifecycle) Send(event string) error {
	before := l.Current()
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if l.Current() != before {
		return nil
	}
	return fmt.Errorf("event '%s' is not allowed while the order is '%s'", event, before)
}

// Advance moves the machine to the target status if a single step reaches it.
func (l *Lifecycle) Advance(target Status) error {
	event, ok := advanceEvents[target]
	if !ok {
		return fmt.Errorf("no event reaches status '%s'", target)
	}
	return l.Send(event)
}

// CanAdvance reports whether target lies strictly ahead of from in the
// lifecycle. Unknown statuses are never considered ordered, so they advance.
func CanAdvance(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() {
		return true
	}
	if from == to || from.IsFinal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return position(to) > position(from)
}

func position(s Status) int {
	for i, st := range progression {
		if st == s {
			return i
		}
	}
	return -1
}

// Step is one entry of the tracking progress indicator.
type Step struct {
	Status    Status `json:"status"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Active    bool   `json:"active"`
}

// Steps returns the progression for display, marking every step up to and
// including the current status as completed.
func Steps(current Status) []Step {
	idx := position(current)
	steps := make([]Step, len(progression))
	for i, s := range progression {
		steps[i] = Step{
			Status:    s,
			Label:     s.DisplayName(),
			Completed: i <= idx,
			Active:    i == idx,
		}
	}
	return steps
}
