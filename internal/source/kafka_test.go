package source

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// fakeReader replays fixed messages, then returns err (or blocks until ctx
// is done when err is nil).
type fakeReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestKafka_ConsumesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{msgs: []kafka.Message{
		{Value: []byte(`{"uuid":"u1","name":"ssh.fail"}`)},
		{Value: []byte(`garbage`), Offset: 7},
		{Value: []byte(`{"uuid":"u2","name":"ssh.ok"}`)},
	}}
	q := queue.New[ir.Command]()
	k := &Kafka{Topic: "logs", Reader: r}

	done := make(chan error, 1)
	go func() { done <- k.Produce(ctx, q) }()

	require.Eventually(t, func() bool { return q.Len() == 2 }, timeout, tick)
	cancel()
	require.NoError(t, <-done)

	cmds := q.Drain()
	require.Len(t, cmds, 3)
	assert.Equal(t, "u1", cmds[0].Event.Message.UUID())
	assert.Equal(t, "u2", cmds[1].Event.Message.UUID())
	assert.Equal(t, ir.CommandExit, cmds[2].Kind)
	assert.True(t, r.closed)
	assert.Equal(t, "kafka:logs", k.Name())
}

func TestKafka_ReaderErrorReturned(t *testing.T) {
	r := &fakeReader{err: errors.New("broker gone")}
	q := queue.New[ir.Command]()

	err := (&Kafka{Topic: "logs", Reader: r}).Produce(context.Background(), q)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
	assert.Equal(t, []ir.Command{ir.Exit()}, q.Drain())
}
