// Package sink is the action stage: it drains the dispatcher's output
// queue and delivers each record to a destination.
package sink

import (
	"context"
	"log/slog"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// Sink delivers output records.
type Sink interface {
	Write(ctx context.Context, r ir.ExecResult) error
	Close() error
}

// DrainStats summarizes one Drain run.
type DrainStats struct {
	Written int
	Failed  int
	Exits   int
}

// Drain writes every record from q to s until it has seen quorum Exits, q
// is closed and empty, or ctx is done. A failed write is logged and
// counted; draining continues.
func Drain(ctx context.Context, q *queue.Queue[ir.Response], s Sink, quorum int) DrainStats {
	var st DrainStats

	for st.Exits < quorum {
		resp, ok := q.DequeueOrDone(ctx.Done())
		if !ok {
			break
		}

		switch resp.Kind {
		case ir.ResponseExit:
			st.Exits++

		case ir.ResponseResult:
			if err := s.Write(ctx, resp.Result); err != nil {
				st.Failed++
				slog.Error("sink write failed",
					"record_id", resp.Result.ID,
					"context_id", resp.Result.ContextID,
					"name", resp.Result.Name,
					"error", err,
				)
				continue
			}
			st.Written++
			slog.Debug("record written",
				"record_id", resp.Result.ID,
				"seq", resp.Result.Seq,
				"name", resp.Result.Name,
			)
		}
	}

	slog.Info("sink drained",
		"written", st.Written,
		"failed", st.Failed,
		"exits", st.Exits,
	)
	return st
}
