package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/correlate/internal/compiler"
	"github.com/roach88/correlate/internal/engine"
	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
	"github.com/roach88/correlate/internal/rule"
	"github.com/roach88/correlate/internal/sink"
	"github.com/roach88/correlate/internal/store"
	"github.com/roach88/correlate/internal/testutil"
)

// Harness runs one scenario against a real dispatcher.
type Harness struct {
	store *store.Store
	clock *testutil.DeterministicClock
	ids   *testutil.SequentialIDs
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load, compile and validate the scenario's CUE rules
//  2. Enqueue every step, then quorum Exits, on the control queue
//  3. Run the dispatcher loop to completion
//  4. Drain its output into the store and read the trace back in seq order
//  5. Check the expectations
//
// An error is returned when the scenario cannot run at all. Failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadRules(scenario.RulesDir(), compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load rules: %w", errors.Join(errs...))
	}
	if verrs := compiler.Validate(loaded.Configs); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i, ve := range verrs {
			joined[i] = ve
		}
		return nil, fmt.Errorf("invalid rules: %w", errors.Join(joined...))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		clock: testutil.NewDeterministicClock(),
		ids:   testutil.NewSequentialIDs("msg"),
	}
	return h.run(context.Background(), scenario, rule.FromConfigs(loaded.Configs))
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, rules *rule.Map) (*Result, error) {
	quorum := scenario.Quorum
	if quorum == 0 {
		quorum = engine.DefaultQuorum
	}

	control := queue.New[ir.Command]()
	out := queue.New[ir.Response]()

	for i, step := range scenario.Steps {
		cmd, err := h.command(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		control.Enqueue(cmd)
	}
	for range quorum {
		control.Enqueue(ir.Exit())
	}
	control.Close()

	d := engine.New(rules, out,
		engine.WithQuorum(quorum),
		engine.WithClock(h.clock),
	)
	d.StartLoop(control)
	out.Close()

	drained := sink.Drain(ctx, out, sink.NewStore(h.store), quorum)
	if drained.Failed > 0 {
		return nil, fmt.Errorf("failed to store %d records", drained.Failed)
	}

	records, err := h.store.ReadResults(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	stats := d.Stats()
	result := NewResult()
	result.Dispatched = stats.Dispatched
	result.Dropped = stats.Dropped
	for _, r := range records {
		result.Trace = append(result.Trace, traceEvent(r))
	}

	checkExpectations(scenario.Expect, result)

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"records", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// command converts a step into a control queue command.
func (h *Harness) command(step Step) (ir.Command, error) {
	if step.Message != nil {
		id := step.Message.UUID
		if id == "" {
			id = h.ids.Generate()
		}
		msg := ir.NewMessage(id, step.Message.Name, step.Message.Values)
		return ir.Dispatch(ir.MessageEvent(msg)), nil
	}

	d, err := step.TickDuration()
	if err != nil {
		return ir.Command{}, fmt.Errorf("invalid tick: %w", err)
	}
	return ir.Dispatch(ir.TimerTick(d)), nil
}

func checkExpectations(expect []Expectation, result *Result) {
	for i, e := range expect {
		n := result.Count(e.Context, e.Name)
		switch {
		case e.Count == nil && n == 0:
			result.AddError(fmt.Sprintf("expect[%d]: no %q record from context %q", i, e.Name, e.Context))
		case e.Count != nil && n != *e.Count:
			result.AddError(fmt.Sprintf("expect[%d]: got %d %q records from context %q, want %d",
				i, n, e.Name, e.Context, *e.Count))
		}
	}
}
