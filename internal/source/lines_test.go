package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
	"github.com/roach88/correlate/internal/testutil"
)

func drain(q *queue.Queue[ir.Command]) []ir.Command {
	return q.Drain()
}

func TestLines_DecodesAndExits(t *testing.T) {
	input := strings.Join([]string{
		`{"uuid":"u1","name":"ssh.fail","values":{"host":"web-1"}}`,
		``,
		`not json`,
		`{"name":"ssh.ok"}`,
		`{"values":{"orphan":"yes"}}`,
	}, "\n")
	q := queue.New[ir.Command]()
	l := &Lines{Reader: strings.NewReader(input), IDs: testutil.NewSequentialIDs("gen")}

	err := l.Produce(context.Background(), q)

	require.NoError(t, err)
	cmds := drain(q)
	require.Len(t, cmds, 3)

	first := cmds[0].Event.Message
	assert.Equal(t, ir.CommandDispatch, cmds[0].Kind)
	assert.Equal(t, "u1", first.UUID())
	host, _ := first.Get("host")
	assert.Equal(t, "web-1", host)

	second := cmds[1].Event.Message
	assert.Equal(t, "gen-0001", second.UUID(), "missing uuid is generated")
	assert.Equal(t, "ssh.ok", second.Name())

	assert.Equal(t, ir.CommandExit, cmds[2].Kind)
}

func TestLines_EmptyInputStillExits(t *testing.T) {
	q := queue.New[ir.Command]()

	require.NoError(t, (&Lines{Reader: strings.NewReader("")}).Produce(context.Background(), q))

	assert.Equal(t, []ir.Command{ir.Exit()}, drain(q))
}

func TestLines_DefaultIDsAreUUIDv7(t *testing.T) {
	q := queue.New[ir.Command]()

	require.NoError(t, (&Lines{Reader: strings.NewReader(`{"name":"x"}`)}).Produce(context.Background(), q))

	cmds := drain(q)
	require.Len(t, cmds, 2)
	assert.Len(t, cmds[0].Event.Message.UUID(), 36)
}

func TestLines_ClosedQueueStops(t *testing.T) {
	q := queue.New[ir.Command]()
	q.Close()

	err := (&Lines{Reader: strings.NewReader(`{"name":"x"}` + "\n" + `{"name":"y"}`)}).Produce(context.Background(), q)

	assert.NoError(t, err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLines_ReadErrorReturnedAfterExit(t *testing.T) {
	q := queue.New[ir.Command]()

	err := (&Lines{Reader: errReader{}}).Produce(context.Background(), q)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Equal(t, []ir.Command{ir.Exit()}, drain(q))
}

func TestLines_ContextCancelClosesReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	q := queue.New[ir.Command]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- (&Lines{Label: "stdin", Reader: pr}).Produce(ctx, q) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Produce did not return after cancel")
	}
	assert.Equal(t, []ir.Command{ir.Exit()}, drain(q))
}
