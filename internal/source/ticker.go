package source

import (
	"context"
	"time"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// Ticker enqueues a Timer event every Interval. Each event carries
// Interval as its elapsed time, so rule timers advance by a fixed step.
type Ticker struct {
	Interval time.Duration

	// Ticks overrides the time.Ticker channel.
	Ticks <-chan time.Time

	// Done, if set, ends the ticker early. The run command closes it when
	// the input producer finishes, so a finite input ends the run.
	Done <-chan struct{}
}

// Name implements Producer.
func (t *Ticker) Name() string { return "timer" }

// Produce implements Producer. It runs until ctx is done.
func (t *Ticker) Produce(ctx context.Context, q *queue.Queue[ir.Command]) error {
	defer sendExit(q, t.Name())

	ticks := t.Ticks
	if ticks == nil {
		tk := time.NewTicker(t.Interval)
		defer tk.Stop()
		ticks = tk.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.Done:
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if !q.Enqueue(ir.Dispatch(ir.TimerTick(t.Interval))) {
				return nil
			}
		}
	}
}
