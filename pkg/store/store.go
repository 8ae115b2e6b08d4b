package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the combined application state. Values returned by Store.State
// are snapshots and must be treated as read-only.
type State struct {
	Order OrderState
	Admin AdminState
	UI    UIState
}

// InitialState returns the state of a freshly created store.
func InitialState() State {
	return State{
		Admin: initialAdminState(),
		UI:    initialUIState(),
	}
}

// Listener is called after every dispatch with the resulting state.
type Listener func(State)

type config struct {
	staleResponses    bool
	lifecycleOrdering bool
}

type options struct {
	config
	clock  func() time.Time
	logger *zap.Logger
}

func defaultOptions() options {
	return options{
		clock:  time.Now,
		logger: zap.NewNop(),
	}
}

// Option configures a Store.
type Option func(*options)

// WithStaleResponses lets every fulfilled or rejected response commit, in
// arrival order, even when a newer request for the same state was issued.
func WithStaleResponses() Option {
	return func(o *options) { o.staleResponses = true }
}

// WithLifecycleOrdering drops real-time status events that would move an
// order backwards in its lifecycle.
func WithLifecycleOrdering() Option {
	return func(o *options) { o.lifecycleOrdering = true }
}

// WithClock sets the clock used to stamp notifications and real-time events.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Store holds the application state and serialises every change through
// Dispatch. It is safe for concurrent use.
type Store struct {
	cfg    config
	clock  func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	lastReq RequestToken

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// New creates a store in its initial state.
func New(opts ...Option) *Store {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Store{
		cfg:       o.config,
		clock:     o.clock,
		logger:    o.logger.With(zap.String("component", "store")),
		state:     InitialState(),
		listeners: make(map[uint64]Listener),
	}
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an action and notifies listeners.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	next := s.applyLocked(a)
	s.mu.Unlock()

	s.notify(next)
	return next
}

// Begin issues a request token for op and applies its Pending action in the
// same critical section, so slots always record the newest token. Untracked
// operations get the zero token.
func (s *Store) Begin(op Op) RequestToken {
	s.mu.Lock()
	var req RequestToken
	if op.tracked() {
		s.lastReq++
		req = s.lastReq
	}
	next := s.applyLocked(Pending{Op: op, Req: req})
	s.mu.Unlock()

	s.notify(next)
	return req
}

func (s *Store) applyLocked(a Action) State {
	a = s.prepare(a)
	s.state = reduce(s.state, a, s.cfg)
	s.logger.Debug("dispatch", zap.String("action", fmt.Sprintf("%T", a)))
	return s.state
}

// Subscribe registers a listener. The returned function removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(st State) {
	s.listenersMu.Lock()
	ids := slices.Sorted(maps.Keys(s.listeners))
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// prepare fills the impure fields of an action so reducers stay pure.
func (s *Store) prepare(a Action) Action {
	switch v := a.(type) {
	case AddNotification:
		if v.Notification.ID == "" {
			v.Notification.ID = uuid.NewString()
		}
		if v.Notification.Timestamp.IsZero() {
			v.Notification.Timestamp = s.clock()
		}
		return v
	case ApplyStatusEvent:
		if v.ReceivedAt.IsZero() {
			v.ReceivedAt = s.clock()
		}
		return v
	}
	return a
}

func reduce(s State, a Action, cfg config) State {
	return State{
		Order: reduceOrder(s.Order, a, cfg),
		Admin: reduceAdmin(s.Admin, a, cfg),
		UI:    reduceUI(s.UI, a),
	}
}
