// Package engine implements the correlation dispatcher.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// One goroutine runs Dispatcher.StartLoop. It alone advances lookup cursors
// and touches rule state, so rules need no locking. This ensures:
//   - Rules see messages in the order they were enqueued
//   - Every matching rule is offered a message before the next command is read
//   - Output records leave in exactly the order rules produced them
//
// Command Flow:
//  1. Producers enqueue ir.Command values on a shared control queue
//  2. The reactor dequeues one command at a time and routes it by kind
//  3. Dispatch commands go to the rules selected by rule.Map
//  4. Records returned by rules are stamped (seq, ID) and forwarded at once
//  5. Exit commands are forwarded and counted against the quorum
//
// The loop stops after quorum Exits, after Stop, or when the control queue
// is closed and drained.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Output records are stamped with a monotonic seq from Clock.Next().
// Wall-clock time never orders records.
//
// Drop On Send Failure:
// A record or Exit the output queue refuses is dropped and counted. The
// loop keeps running; sinks going away is not a reason to stop correlating.
package engine
