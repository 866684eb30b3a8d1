package events

import (
	"slices"
	"sort"
	"strings"

	"github.com/vango-dev/reactor/pkg/report"
)

// HookPrefix marks event names that observe lifecycle hooks.
const HookPrefix = "hook:"

// Handler is an event callback.
type Handler func(args ...any) error

// Listener is a registered handler. Listeners are compared by pointer.
type Listener struct {
	fn Handler

	// orig is the listener a once-wrapper was created for.
	orig *Listener
}

// Listen wraps fn in a new Listener.
func Listen(fn Handler) *Listener {
	return &Listener{fn: fn}
}

// Func wraps a handler that cannot fail.
func Func(fn func(args ...any)) *Listener {
	return &Listener{fn: func(args ...any) error {
		fn(args...)
		return nil
	}}
}

// Call invokes the handler.
func (l *Listener) Call(args ...any) error {
	return l.fn(args...)
}

// Matches reports whether l is other or a once-wrapper around other.
func (l *Listener) Matches(other *Listener) bool {
	return l == other || (l.orig != nil && l.orig == other)
}

// ErrorFunc receives handler failures.
type ErrorFunc func(event string, err error)

// Bus maps event names to ordered listener lists. Registration order is call
// order. It is not safe for concurrent use.
type Bus struct {
	events       map[string][]*Listener
	hasHookEvent bool
	onError      ErrorFunc
}

// NewBus creates an empty bus. onError receives handler errors and panics;
// when nil they are dropped.
func NewBus(onError ErrorFunc) *Bus {
	return &Bus{
		events:  make(map[string][]*Listener),
		onError: onError,
	}
}

// On appends l to the listeners for name.
func (b *Bus) On(name string, l *Listener) *Bus {
	b.events[name] = append(b.events[name], l)
	if strings.HasPrefix(name, HookPrefix) {
		b.hasHookEvent = true
	}
	return b
}

// OnEach appends l to the listeners of every name.
func (b *Bus) OnEach(names []string, l *Listener) *Bus {
	for _, name := range names {
		b.On(name, l)
	}
	return b
}

// Once registers l for a single invocation. The wrapper removes itself
// before calling l, so l runs once even if it re-emits name.
func (b *Bus) Once(name string, l *Listener) *Bus {
	wrapper := &Listener{orig: l}
	wrapper.fn = func(args ...any) error {
		b.OffListener(name, wrapper)
		return l.fn(args...)
	}
	return b.On(name, wrapper)
}

// Off removes listeners. With no names every listener is removed; otherwise
// all listeners of each named event are removed.
func (b *Bus) Off(names ...string) *Bus {
	if len(names) == 0 {
		clear(b.events)
		b.hasHookEvent = false
		return b
	}
	for _, name := range names {
		delete(b.events, name)
	}
	return b
}

// OffListener removes the most recently registered listener for name that
// matches l. Once-wrappers match the listener they wrap.
func (b *Bus) OffListener(name string, l *Listener) *Bus {
	cbs := b.events[name]
	for i := len(cbs) - 1; i >= 0; i-- {
		if cbs[i].Matches(l) {
			b.events[name] = slices.Delete(slices.Clone(cbs), i, i+1)
			break
		}
	}
	if len(b.events[name]) == 0 {
		delete(b.events, name)
	}
	return b
}

// OffEach calls OffListener for every name.
func (b *Bus) OffEach(names []string, l *Listener) *Bus {
	for _, name := range names {
		b.OffListener(name, l)
	}
	return b
}

// Emit calls every listener of name with args. The list is copied first so
// listeners may subscribe or unsubscribe while it is being emitted. A failing
// listener is reported and the remaining listeners still run.
func (b *Bus) Emit(name string, args ...any) *Bus {
	cbs := b.events[name]
	if len(cbs) == 0 {
		return b
	}
	snapshot := slices.Clone(cbs)
	for _, l := range snapshot {
		err := report.Guard(func() error {
			return l.fn(args...)
		})
		if err != nil && b.onError != nil {
			b.onError(name, err)
		}
	}
	return b
}

// HasHookEvent reports whether a "hook:" listener was registered since the
// last full Off.
func (b *Bus) HasHookEvent() bool {
	return b.hasHookEvent
}

// Listeners returns a copy of the listeners registered for name.
func (b *Bus) Listeners(name string) []*Listener {
	return slices.Clone(b.events[name])
}

// Has reports whether name has listeners.
func (b *Bus) Has(name string) bool {
	return len(b.events[name]) > 0
}

// Names returns the event names with listeners, sorted.
func (b *Bus) Names() []string {
	names := make([]string, 0, len(b.events))
	for name := range b.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
