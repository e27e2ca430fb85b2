package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"ssh_burst", "disk_timeout"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace_Canonical(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{{
		Seq:         7,
		ContextID:   diskUUID,
		ContextName: "disk-full",
		Name:        "disk.alert",
		Values:      map[string]string{"z": "1", "a": "<&>"},
	}}

	got, err := MarshalTrace("canon", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"canon","trace":[{"context":"disk-full","context_id":"`+diskUUID+`","name":"disk.alert","seq":7,"values":{"a":"<&>","z":"1"}}]}`,
		string(got))
}

func TestMarshalTrace_Empty(t *testing.T) {
	got, err := MarshalTrace("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(got))
}
