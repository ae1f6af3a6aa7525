// Package lifecycle models the lifecycle of the hosts that own dependency
// scopes: the process, screens and the sub-screens nested inside them.
//
// A host owner drives transitions explicitly:
//
//	lc := lifecycle.New()
//	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Created})
//	...
//	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: true})
//
// Observers registered with AddObserver see every transition dispatched after
// they were added. Nothing in this package runs on its own; no goroutines, no
// locks. All calls belong on the goroutine that owns the host.
package lifecycle

import (
	"reflect"
	"slices"
)

// ── Kinds ─────────────────────────────────────────────────────────────────────

// Kind classifies a host.
type Kind int

const (
	// KindApplication is the process-level host.
	KindApplication Kind = iota + 1
	// KindScreen is a top-level interactive host (one user session).
	KindScreen
	// KindSubScreen is a host nested inside a screen.
	KindSubScreen
	// KindWorker is a background host with no user-facing lifecycle.
	KindWorker
)

func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindScreen:
		return "screen"
	case KindSubScreen:
		return "sub-screen"
	case KindWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// ── Events ────────────────────────────────────────────────────────────────────

// Event is a lifecycle transition kind.
type Event int

const (
	Created Event = iota + 1
	Started
	Stopped
	Destroyed
)

func (e Event) String() string {
	switch e {
	case Created:
		return "created"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Transition is one dispatched event.
//
// Finishing is only meaningful for Destroyed: true means the host is going
// away for good, false means it is being torn down to be recreated (for
// example after a configuration change) and its state should survive.
type Transition struct {
	Event     Event
	Finishing bool
}

// ── Host contracts ────────────────────────────────────────────────────────────

// Host is anything that can own a dependency scope.
type Host interface {
	HostID() string
	HostKind() Kind
}

// Owner exposes a host's lifecycle.
type Owner interface {
	Lifecycle() *Lifecycle
}

// Nested is implemented by hosts that live inside another host.
type Nested interface {
	ParentHost() Host
}

// Observer receives transitions.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer. Functions are not comparable,
// so an ObserverFunc is never deduplicated by AddObserver and cannot be
// removed with RemoveObserver. Use a pointer observer when removal matters.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Lifecycle keeps the current state of one host and its observers.
type Lifecycle struct {
	state     Event
	finished  bool
	observers []Observer
}

// New returns a lifecycle that has not been created yet.
func New() *Lifecycle {
	return &Lifecycle{}
}

// State returns the last dispatched event (zero before Created).
func (l *Lifecycle) State() Event { return l.state }

// Finished reports whether a finishing Destroyed has been dispatched.
func (l *Lifecycle) Finished() bool { return l.finished }

// AddObserver registers o. Adding the same comparable observer twice is a
// no-op.
func (l *Lifecycle) AddObserver(o Observer) {
	if l.indexOf(o) >= 0 {
		return
	}
	l.observers = append(l.observers, o)
}

// RemoveObserver unregisters o. Unknown and uncomparable observers are
// ignored.
func (l *Lifecycle) RemoveObserver(o Observer) {
	if i := l.indexOf(o); i >= 0 {
		l.observers = slices.Delete(l.observers, i, i+1)
	}
}

// Observers returns the number of registered observers.
func (l *Lifecycle) Observers() int { return len(l.observers) }

// Dispatch records t and forwards it to every observer in registration order.
// Observers may remove themselves while being notified.
func (l *Lifecycle) Dispatch(t Transition) {
	l.state = t.Event
	if t.Event == Destroyed && t.Finishing {
		l.finished = true
	}
	for _, o := range slices.Clone(l.observers) {
		o.OnTransition(t)
	}
}

func (l *Lifecycle) indexOf(o Observer) int {
	for i, cur := range l.observers {
		if sameObserver(cur, o) {
			return i
		}
	}
	return -1
}

// sameObserver reports false for uncomparable dynamic types such as
// ObserverFunc.
func sameObserver(a, b Observer) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
