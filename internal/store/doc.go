// Package store provides SQLite-backed durable storage for output records.
//
// The store is an append-only audit log of every record the dispatcher
// forwarded to the sqlite sink. The trace command reads it back.
//
// # Critical Patterns
//
// Record-Level Idempotency
//   - results.id is the content-addressed record ID (ir.RecordID)
//   - INSERT ... ON CONFLICT(id) DO NOTHING makes replays harmless
//
// Logical Time
//   - Ordering uses the seq column (logical clock), never timestamps
//   - All reads: ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - user_version: incremental migrations
package store
