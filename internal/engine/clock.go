package engine

import "sync/atomic"

// Sequencer hands out record seqs. *Clock is the production implementation;
// tests substitute a resettable clock.
type Sequencer interface {
	Next() int64
}

// Clock is the monotonic logical clock that stamps output records.
//
// Every forwarded record gets a strictly increasing seq, which orders the
// audit store and feeds the record ID. Seq values never come from wall-clock
// time, so a replay of the same input yields the same seqs.
//
// Thread-safety: safe for concurrent use. In practice only the dispatcher
// goroutine calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
// Used by the run command to continue numbering after records already
// persisted in the output store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out, without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
