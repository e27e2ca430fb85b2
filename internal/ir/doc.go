// Package ir provides the value types that flow through the correlation engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Messages are immutable once built; rules only ever see *Message
//   - Events and Commands are plain values, created by producers and
//     consumed exactly once by the dispatcher goroutine
//   - Output records carry a logical seq, never a wall-clock timestamp
//   - JSON tags use snake_case
package ir
