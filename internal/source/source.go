// Package source holds the producers that feed the dispatcher's control
// queue: log messages from a JSON-lines stream or a Kafka topic, and the
// periodic timer.
//
// Every producer enqueues exactly one Exit when it finishes, whatever the
// reason. The dispatcher's quorum is the number of producers wired to the
// queue, so the loop stops once all of them are done.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// Producer feeds commands into the control queue until its input ends or
// ctx is done, then enqueues one Exit.
type Producer interface {
	Name() string
	Produce(ctx context.Context, q *queue.Queue[ir.Command]) error
}

// IDGenerator assigns UUIDs to messages that arrive without one.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 message IDs.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Run starts every producer in its own goroutine and waits for all of them.
// Producer errors are logged and returned joined.
func Run(ctx context.Context, q *queue.Queue[ir.Command], producers ...Producer) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Debug("producer starting", "source", p.Name())
			if err := p.Produce(ctx, q); err != nil {
				slog.Error("producer failed", "source", p.Name(), "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}

// sendExit enqueues the producer's single Exit.
func sendExit(q *queue.Queue[ir.Command], name string) {
	if !q.Enqueue(ir.Exit()) {
		slog.Debug("control queue closed, exit not delivered", "source", name)
		return
	}
	slog.Debug("producer finished", "source", name)
}

// decodeMessage parses one JSON message and assigns a UUID when missing.
func decodeMessage(data []byte, ids IDGenerator) (*ir.Message, error) {
	msg, err := ir.ParseMessage(data)
	if err != nil {
		return nil, err
	}
	if msg.UUID() == "" {
		msg = ir.NewMessage(ids.Generate(), msg.Name(), msg.Values())
	}
	return msg, nil
}

// Finally wraps p so that fn runs once p.Produce has returned, after p's
// Exit is enqueued.
func Finally(p Producer, fn func()) Producer {
	return &finally{Producer: p, fn: fn}
}

type finally struct {
	Producer
	fn func()
}

func (f *finally) Produce(ctx context.Context, q *queue.Queue[ir.Command]) error {
	defer f.fn()
	return f.Producer.Produce(ctx, q)
}
