package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// maxLineSize bounds a single JSON line.
const maxLineSize = 1 << 20

// Lines reads one JSON message per line:
//
//	{"uuid": "...", "name": "ssh.fail", "values": {"host": "web-1"}}
//
// Blank lines are ignored. Malformed lines are logged and skipped.
// If Reader is an io.Closer it is closed when ctx is done, which unblocks
// a pending read.
type Lines struct {
	Label  string // used in logs; defaults to "lines"
	Reader io.Reader
	IDs    IDGenerator // nil means UUIDv7Generator
}

// Name implements Producer.
func (l *Lines) Name() string {
	if l.Label == "" {
		return "lines"
	}
	return l.Label
}

// Produce implements Producer.
func (l *Lines) Produce(ctx context.Context, q *queue.Queue[ir.Command]) error {
	defer sendExit(q, l.Name())

	ids := l.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	if c, ok := l.Reader.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	sc := bufio.NewScanner(l.Reader)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if ctx.Err() != nil {
			return nil
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := decodeMessage(line, ids)
		if err != nil {
			slog.Warn("skipping malformed line",
				"source", l.Name(),
				"line", lineNo,
				"error", err,
			)
			continue
		}

		if !q.Enqueue(ir.Dispatch(ir.MessageEvent(msg))) {
			return nil
		}
	}

	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return nil
}
