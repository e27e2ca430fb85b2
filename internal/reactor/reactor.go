package reactor

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Event is anything that can be routed by an ordered handler key.
type Event[K cmp.Ordered] interface {
	HandlerKey() K
}

// Demultiplexer yields the next event from a single source.
// Select returns false once the source is exhausted.
type Demultiplexer[E any] interface {
	Select() (E, bool)
}

// Handler processes the events routed to its key.
type Handler[K cmp.Ordered, E Event[K]] interface {
	HandleEvent(ev E)
	HandlerKey() K
}

// HandlerFunc adapts a function to a Handler bound to a fixed key.
type HandlerFunc[K cmp.Ordered, E Event[K]] struct {
	Key K
	Fn  func(E)
}

// HandleEvent calls Fn.
func (h HandlerFunc[K, E]) HandleEvent(ev E) { h.Fn(ev) }

// HandlerKey returns Key.
func (h HandlerFunc[K, E]) HandlerKey() K { return h.Key }

// MissingHandlerError reports an event key with no registered handler.
type MissingHandlerError struct {
	Key any
}

// Error implements the error interface.
func (e *MissingHandlerError) Error() string {
	return fmt.Sprintf("reactor: no handler registered for key %v", e.Key)
}

// Reactor is a demultiplex-and-dispatch loop.
type Reactor[K cmp.Ordered, E Event[K]] struct {
	handlers  map[K]Handler[K, E]
	demux     Demultiplexer[E]
	condition *Condition
}

// New creates a Reactor reading from demux and stopping on condition.
// A nil condition gets a fresh, inactive one.
func New[K cmp.Ordered, E Event[K]](demux Demultiplexer[E], condition *Condition) *Reactor[K, E] {
	if condition == nil {
		condition = NewCondition()
	}
	return &Reactor[K, E]{
		handlers:  make(map[K]Handler[K, E]),
		demux:     demux,
		condition: condition,
	}
}

// RegisterHandler registers h under its own key, replacing any handler
// previously registered for that key.
func (r *Reactor[K, E]) RegisterHandler(h Handler[K, E]) {
	r.handlers[h.HandlerKey()] = h
}

// RemoveHandler removes the handler registered for key, if any.
func (r *Reactor[K, E]) RemoveHandler(key K) {
	delete(r.handlers, key)
}

// Keys returns the registered handler keys in ascending order.
func (r *Reactor[K, E]) Keys() []K {
	return slices.Sorted(maps.Keys(r.handlers))
}

// Validate returns a *MissingHandlerError for the first key without a
// registered handler.
func (r *Reactor[K, E]) Validate(keys ...K) error {
	for _, k := range keys {
		if _, ok := r.handlers[k]; !ok {
			return &MissingHandlerError{Key: k}
		}
	}
	return nil
}

// Condition returns the condition that stops the loop.
func (r *Reactor[K, E]) Condition() *Condition {
	return r.condition
}

// HandleEvents runs the loop until the condition is active or the
// demultiplexer is exhausted. It panics with *MissingHandlerError when an
// event has no handler.
func (r *Reactor[K, E]) HandleEvents() {
	for !r.condition.IsActive() {
		ev, ok := r.demux.Select()
		if !ok {
			return
		}
		h, found := r.handlers[ev.HandlerKey()]
		if !found {
			panic(&MissingHandlerError{Key: ev.HandlerKey()})
		}
		h.HandleEvent(ev)
	}
}
