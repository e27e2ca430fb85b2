package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// MessageReader is the subset of *kafka.Reader the Kafka producer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Kafka consumes JSON messages from a topic. Each Kafka message value is one
// JSON message in the Lines format.
type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	IDs     IDGenerator // nil means UUIDv7Generator

	// Reader overrides the reader built from Brokers/Topic/Group.
	Reader MessageReader
}

// Name implements Producer.
func (k *Kafka) Name() string {
	return "kafka:" + k.Topic
}

func (k *Kafka) reader() MessageReader {
	if k.Reader != nil {
		return k.Reader
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.Brokers,
		Topic:    k.Topic,
		GroupID:  k.Group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// Produce implements Producer. It stops on ctx done (not an error) or on a
// reader error (returned).
func (k *Kafka) Produce(ctx context.Context, q *queue.Queue[ir.Command]) error {
	defer sendExit(q, k.Name())

	ids := k.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	r := k.reader()
	defer r.Close()

	slog.Info("kafka source connected", "brokers", k.Brokers, "topic", k.Topic, "group", k.Group)

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		msg, err := decodeMessage(m.Value, ids)
		if err != nil {
			slog.Warn("skipping malformed kafka message",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
			continue
		}

		if !q.Enqueue(ir.Dispatch(ir.MessageEvent(msg))) {
			return nil
		}
	}
}
