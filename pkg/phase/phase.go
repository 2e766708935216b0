package phase

import "sync"

// State is the lifecycle position of a one-shot feature.
type State string

const (
	Pending   State = "pending"
	InFlight  State = "in_flight"
	Done      State = "done"
	Abandoned State = "abandoned"
)

func (s State) String() string { return string(s) }

// Event drives a transition between states.
type Event string

const (
	Begin    Event = "begin"
	Complete Event = "complete"
	Fail     Event = "fail"
	Rollback Event = "rollback"
	Abandon  Event = "abandon"
)

func (e Event) String() string { return string(e) }

// Observer is notified after every successful transition.
type Observer func(from, to State, event Event)

// transitions is keyed [from][event] for constant time lookups.
var transitions = map[State]map[Event]State{
	Pending: {
		Begin:   InFlight,
		Abandon: Abandoned,
	},
	InFlight: {
		Complete: Done,
		Fail:     Done,
		Rollback: Pending,
	},
}

var knownEvents = map[Event]struct{}{
	Begin: {}, Complete: {}, Fail: {}, Rollback: {}, Abandon: {},
}

// Machine tracks a single one-shot feature.
// Zero value is not usable; use New.
type Machine struct {
	mu        sync.Mutex
	current   State
	observers []Observer
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers a transition observer. Nil observers are ignored.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithInitial starts the machine in the given state instead of Pending.
// Used when the feature is already satisfied at construction time.
func WithInitial(s State) Option {
	return func(m *Machine) {
		if s != "" {
			m.current = s
		}
	}
}

// New creates a machine in the Pending state.
func New(opts ...Option) *Machine {
	m := &Machine{current: Pending}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire applies event to the machine.
func (m *Machine) Fire(event Event) error {
	if _, ok := knownEvents[event]; !ok {
		return ErrUnknownEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(event)
}

// Can reports whether event is allowed from the current state.
func (m *Machine) Can(event Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := transitions[m.current][event]
	return ok
}

// Begin claims the dispatch. It returns true exactly once per pending period.
func (m *Machine) Begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(Begin) == nil
}

// Settle moves an in-flight machine to done, recording whether the call failed.
func (m *Machine) Settle(err error) {
	event := Complete
	if err != nil {
		event = Fail
	}
	_ = m.Fire(event)
}

// IsTerminal reports whether the machine can never dispatch again.
func (m *Machine) IsTerminal() bool {
	s := m.Current()
	return s == Done || s == Abandoned
}

func (m *Machine) fireLocked(event Event) error {
	to, ok := transitions[m.current][event]
	if !ok {
		return &ErrNoTransition{State: m.current, Event: event}
	}

	from := m.current
	m.current = to
	for _, o := range m.observers {
		o(from, to, event)
	}
	return nil
}
