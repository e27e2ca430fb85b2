package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

type memSink struct {
	written []ir.ExecResult
	failOn  string
	closed  bool
}

func (m *memSink) Write(_ context.Context, r ir.ExecResult) error {
	if r.Name == m.failOn {
		return errors.New("refused")
	}
	m.written = append(m.written, r)
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

func record(name string, seq int64) ir.ExecResult {
	r := ir.ExecResult{
		Seq:       seq,
		ContextID: "c1",
		Name:      name,
		Values:    map[string]string{"html": "<b>"},
		Messages:  []*ir.Message{ir.NewMessage("u1", "ssh.fail", nil)},
	}
	r.ID = ir.MustRecordID(r)
	return r
}

func TestDrain_StopsAtQuorum(t *testing.T) {
	q := queue.New[ir.Response]()
	q.Enqueue(ir.ResultResponse(record("a", 1)))
	q.Enqueue(ir.ExitResponse())
	q.Enqueue(ir.ResultResponse(record("b", 2)))
	q.Enqueue(ir.ExitResponse())
	q.Enqueue(ir.ResultResponse(record("late", 3)))
	s := &memSink{}

	st := Drain(context.Background(), q, s, 2)

	assert.Equal(t, DrainStats{Written: 2, Exits: 2}, st)
	require.Len(t, s.written, 2)
	assert.Equal(t, "a", s.written[0].Name)
	assert.Equal(t, "b", s.written[1].Name)
	assert.Equal(t, 1, q.Len(), "records after quorum are not consumed")
}

func TestDrain_WriteFailureContinues(t *testing.T) {
	q := queue.New[ir.Response]()
	q.Enqueue(ir.ResultResponse(record("bad", 1)))
	q.Enqueue(ir.ResultResponse(record("good", 2)))
	q.Enqueue(ir.ExitResponse())
	s := &memSink{failOn: "bad"}

	st := Drain(context.Background(), q, s, 1)

	assert.Equal(t, DrainStats{Written: 1, Failed: 1, Exits: 1}, st)
}

func TestDrain_ClosedQueueEnds(t *testing.T) {
	q := queue.New[ir.Response]()
	q.Enqueue(ir.ResultResponse(record("a", 1)))
	q.Close()

	st := Drain(context.Background(), q, &memSink{}, 2)

	assert.Equal(t, DrainStats{Written: 1}, st)
}

func TestDrain_ContextCancelEnds(t *testing.T) {
	q := queue.New[ir.Response]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan DrainStats, 1)
	go func() { done <- Drain(ctx, q, &memSink{}, 2) }()
	cancel()

	select {
	case st := <-done:
		assert.Equal(t, DrainStats{}, st)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after cancel")
	}
}

func TestJSON_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)

	require.NoError(t, j.Write(context.Background(), record("a", 1)))
	require.NoError(t, j.Write(context.Background(), record("b", 2)))
	require.NoError(t, j.Close())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"html":"<b>"`, "HTML is not escaped")

	var got map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &got))
	assert.Equal(t, "b", got["name"])
	assert.Equal(t, float64(2), got["seq"])
	assert.Equal(t, "c1", got["context_id"])
	msgs := got["messages"].([]any)
	assert.Equal(t, "u1", msgs[0].(map[string]any)["uuid"])
}

func TestJSONFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	for _, name := range []string{"a", "b"} {
		j, err := OpenJSONFile(path)
		require.NoError(t, err)
		require.NoError(t, j.Write(context.Background(), record(name, 1)))
		require.NoError(t, j.Close())
	}

	data := readFile(t, path)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafka_KeyedByContext(t *testing.T) {
	w := &fakeWriter{}
	k := NewKafkaWriter(w)

	require.NoError(t, k.Write(context.Background(), record("a", 1)))
	require.NoError(t, k.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "c1", string(w.msgs[0].Key))
	assert.Contains(t, string(w.msgs[0].Value), `"name":"a"`)
	assert.True(t, w.closed)
}

func TestKafka_WriteError(t *testing.T) {
	k := NewKafkaWriter(&fakeWriter{err: errors.New("leader not available")})

	err := k.Write(context.Background(), record("a", 1))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write")
}

type fakeRedis struct {
	lists  map[string][]string
	err    error
	closed bool
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, v := range values {
		f.lists[key] = append(f.lists[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedis_PushesJSON(t *testing.T) {
	f := &fakeRedis{lists: map[string][]string{}}
	r := NewRedisClient(f, "alerts")

	require.NoError(t, r.Write(context.Background(), record("a", 1)))
	require.NoError(t, r.Write(context.Background(), record("b", 2)))
	require.NoError(t, r.Close())

	require.Len(t, f.lists["alerts"], 2)
	assert.Contains(t, f.lists["alerts"][1], `"name":"b"`)
	assert.True(t, f.closed)
}

func TestRedis_WriteError(t *testing.T) {
	r := NewRedisClient(&fakeRedis{err: errors.New("connection refused")}, "alerts")

	err := r.Write(context.Background(), record("a", 1))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis rpush alerts")
}

func TestStore_WritesAndResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	ctx := context.Background()

	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, record("a", 4)))
	require.NoError(t, s.Write(ctx, record("a", 4)))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}
