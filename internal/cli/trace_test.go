package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/store"
)

const (
	loginUUID = "3f1e2d4c-5b6a-4978-8a1b-2c3d4e5f6a7b"
	diskUUID  = "0b7e3d8a-5f21-4c3e-8d4b-91a2c3d4e5f6"
)

// seedStore writes records for two contexts and returns the db path.
func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	records := []ir.ExecResult{
		{Seq: 1, ContextID: loginUUID, ContextName: "login-burst", Name: "auth.recovered",
			Values:   map[string]string{"user": "alice", "attempts": "3"},
			Messages: []*ir.Message{ir.NewMessage("f1", "auth.fail", nil), ir.NewMessage("ok", "auth.ok", nil)}},
		{Seq: 2, ContextID: diskUUID, ContextName: "disk-full", Name: "disk.alert",
			Messages: []*ir.Message{ir.NewMessage("d1", "disk.full", nil)}},
		{Seq: 3, ContextID: loginUUID, ContextName: "login-burst", Name: "auth.recovered",
			Values:   map[string]string{"user": "bob", "attempts": "1"},
			Messages: []*ir.Message{ir.NewMessage("f9", "auth.fail", nil)}},
	}
	for _, r := range records {
		r.ID = ir.MustRecordID(r)
		require.NoError(t, st.WriteResult(context.Background(), r))
	}
	return path
}

func executeTrace(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceDatabaseNotFound(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceText(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", seedStore(t))
	require.NoError(t, err)

	assert.Contains(t, out, "[1] login-burst auth.recovered {attempts=3, user=alice}")
	assert.Contains(t, out, "[2] disk-full disk.alert {}")
	assert.Contains(t, out, "[3] login-burst auth.recovered {attempts=1, user=bob}")
	assert.Contains(t, out, "Records:  3")
	assert.Contains(t, out, "Contexts: 2")
	assert.Contains(t, out, "Messages: 4")
	assert.Contains(t, out, "Max Seq:  3")
	assert.NotContains(t, out, "Messages: f1")
}

func TestTraceTextVerbose(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "text", Verbose: true}, "--db", seedStore(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Messages: f1, ok")
	assert.Contains(t, out, "ID: ")
}

func TestTraceContextFilterJSON(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", seedStore(t), "--context", loginUUID)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, loginUUID, resp.Data.Context)
	require.Len(t, resp.Data.Records, 2)
	assert.Equal(t, int64(1), resp.Data.Records[0].Seq)
	assert.Equal(t, int64(3), resp.Data.Records[1].Seq)
	assert.Equal(t, []string{"f9"}, resp.Data.Records[1].Messages)
	assert.Equal(t, TraceStats{Records: 2, Contexts: 1, Messages: 3, MaxSeq: 3}, resp.Data.Stats)
}

func TestTraceEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(no records)")
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "{}", formatValues(nil))
	assert.Equal(t, "{a=1, b=2}", formatValues(map[string]string{"b": "2", "a": "1"}))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "abcdefgh...stuvwxyz", truncateID("abcdefghijklmnopqrstuvwxyz"))
}
