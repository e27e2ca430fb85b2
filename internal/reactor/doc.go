// Package reactor implements a generic single-consumer event loop.
//
// A Reactor pulls events from one Demultiplexer, routes each event to the
// Handler registered under the event's handler key, and stops when its
// Condition becomes active or the demultiplexer reports end of stream.
//
// State machine:
//
//	Running --(Condition active | end of stream)--> Stopped
//
// Stopped is terminal. HandleEvents must be called from exactly one
// goroutine; only Condition may be touched from others.
//
// Policies:
//   - Registering a handler for a key that already has one replaces it.
//   - An event whose key has no handler is a programming error and panics
//     with *MissingHandlerError. Use Validate at construction time to catch
//     this before the loop starts.
package reactor
