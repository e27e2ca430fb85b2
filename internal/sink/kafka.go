package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/correlate/internal/ir"
)

// MessageWriter is the subset of *kafka.Writer the Kafka sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes records to a topic, keyed by context ID so records of
// one context stay on one partition.
type Kafka struct {
	w MessageWriter
}

// NewKafka creates a sink writing to topic on brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return NewKafkaWriter(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
}

// NewKafkaWriter wraps an existing writer.
func NewKafkaWriter(w MessageWriter) *Kafka {
	return &Kafka{w: w}
}

// Write implements Sink.
func (k *Kafka) Write(ctx context.Context, r ir.ExecResult) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.ContextID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close implements Sink.
func (k *Kafka) Close() error {
	return k.w.Close()
}
