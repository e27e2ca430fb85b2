package harness

import "github.com/roach88/correlate/internal/ir"

// TraceEvent is one emitted record as it appears in a trace. Record IDs are
// left out: they hash the whole record, so a golden diff already shows
// whatever would change them.
type TraceEvent struct {
	Seq         int64             `json:"seq"`
	ContextID   string            `json:"context_id"`
	ContextName string            `json:"context"`
	Name        string            `json:"name"`
	Values      map[string]string `json:"values,omitempty"`
	Messages    []string          `json:"messages,omitempty"`
}

// traceEvent projects a stored record onto the trace.
func traceEvent(r ir.ExecResult) TraceEvent {
	return TraceEvent{
		Seq:         r.Seq,
		ContextID:   r.ContextID,
		ContextName: r.ContextName,
		Name:        r.Name,
		Values:      r.Values,
		Messages:    r.MessageUUIDs(),
	}
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Trace holds the emitted records in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Dispatched and Dropped come from the dispatcher's counters.
	Dispatched int64 `json:"dispatched"`
	Dropped    int64 `json:"dropped"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns how many trace records match context (name or uuid) and name.
func (r *Result) Count(context, name string) int {
	n := 0
	for _, ev := range r.Trace {
		if (ev.ContextName == context || ev.ContextID == context) && ev.Name == name {
			n++
		}
	}
	return n
}
