package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyFixture copies the rules and one scenario into a temp tree so a
// test may write golden files.
func copyFixture(t *testing.T, scenario string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{filepath.Join("rules", "auth.cue"), filepath.Join("scenarios", scenario)} {
		data, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
		require.NoError(t, os.WriteFile(dst, data, 0644))
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to find scenarios")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassing(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ idle (1 records)")
	assert.Contains(t, out, "✓ login (1 records)")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeTest(t, "json", "testdata/scenarios", "--filter", "log*")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "login", resp.Data.Scenarios[0].Name)
	assert.Equal(t, 1, resp.Data.Passed)
}

func TestTestCommandSingleFile(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/scenarios/idle.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := copyFixture(t, "login.yaml")
	golden := filepath.Join(dir, "golden", "login.golden")
	require.NoError(t, os.MkdirAll(filepath.Dir(golden), 0755))
	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"login","trace":[]}`), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ login")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandUpdate(t *testing.T) {
	dir := copyFixture(t, "login.yaml")

	_, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "golden", "login.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("testdata/scenarios/golden/login.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// The regenerated golden file now passes.
	_, err = executeTest(t, "text", dir)
	require.NoError(t, err)
}

func TestTestCommandFailedExpectation(t *testing.T) {
	dir := copyFixture(t, "login.yaml")
	bad := `name: wrong
rules: ../rules
steps:
  - message: {name: auth.fail, values: {user: eve}}
expect:
  - context: login-burst
    name: auth.recovered
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(bad), 0644))

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [unclosed"), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
