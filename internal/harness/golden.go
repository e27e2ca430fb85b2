package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/correlate/internal/ir"
)

// TraceSnapshot is what a golden file holds: the scenario name and its
// records in seq order. Record IDs are left out; they hash the seq and the
// generated message UUIDs, and the fields they cover are already here.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap flattens the snapshot into the shapes ir.MarshalCanonical
// accepts. Empty values and messages are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":        event.Seq,
			"context":    event.ContextName,
			"context_id": event.ContextID,
			"name":       event.Name,
		}
		if len(event.Values) > 0 {
			eventMap["values"] = event.Values
		}
		if len(event.Messages) > 0 {
			eventMap["messages"] = event.Messages
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders a result's trace the way golden files store it.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden runs scenario and checks its trace against
// testdata/golden/<name>.golden. Regenerate with
//
//	go test ./internal/harness -update
//
// A mismatch fails t; the error is for a scenario that could not run.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden checks an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
