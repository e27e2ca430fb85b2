package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
	"github.com/roach88/correlate/internal/reactor"
	"github.com/roach88/correlate/internal/rule"
)

// DefaultQuorum is the number of Exit commands that stop the loop: one from
// the message source and one from the timer.
const DefaultQuorum = 2

// Output is the queue towards the action stage.
// Enqueue returns false when the receiving side has gone away.
// *queue.Queue[ir.Response] satisfies it.
type Output interface {
	Enqueue(ir.Response) bool
}

// SendFailurePolicy decides what happens when Output refuses a response.
type SendFailurePolicy int

const (
	// DropOnSendFailure drops the response, counts it, and keeps running.
	DropOnSendFailure SendFailurePolicy = iota
)

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	// Dispatched counts Dispatch commands and direct Dispatch calls.
	Dispatched int64

	// Emitted counts output records accepted by Output.
	Emitted int64

	// Dropped counts responses (records and Exits) Output refused.
	Dropped int64

	// ExitsReceived counts Exit commands consumed.
	ExitsReceived int64
}

// Dispatcher routes events to rules and forwards the records they emit.
//
// Thread-safety model:
//   - StartLoop(), Dispatch(): must be called from exactly one goroutine
//   - Stop(), Stats(): safe from any goroutine
//
// INVARIANTS:
//   - rules are offered events in ascending rule index order
//   - each rule sees a given message at most once
//   - records are forwarded in the order produced; no batching
//   - exactly one Exit is forwarded per Exit consumed
type Dispatcher struct {
	rules  *rule.Map
	out    Output
	clock  Sequencer
	quorum int
	policy SendFailurePolicy
	onDrop func(ir.Response)
	cond   *reactor.Condition

	dispatched atomic.Int64
	emitted    atomic.Int64
	dropped    atomic.Int64
	exits      atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQuorum sets how many Exit commands stop the loop. It must equal the
// number of producers wired to the control queue. Values below 1 are
// ignored.
func WithQuorum(n int) Option {
	return func(d *Dispatcher) {
		if n >= 1 {
			d.quorum = n
		}
	}
}

// WithDropHandler registers fn to observe every response Output refused.
// fn runs on the loop goroutine.
func WithDropHandler(fn func(ir.Response)) Option {
	return func(d *Dispatcher) {
		d.onDrop = fn
	}
}

// WithClock replaces the logical clock used to stamp records.
func WithClock(c Sequencer) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// New creates a Dispatcher over rules that forwards to out.
//
// rules must be fully built: the Map is owned by the dispatcher goroutine
// once the loop starts.
func New(rules *rule.Map, out Output, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rules:  rules,
		out:    out,
		clock:  NewClock(),
		quorum: DefaultQuorum,
		policy: DropOnSendFailure,
		cond:   reactor.NewCondition(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Quorum returns the number of Exits that stop the loop.
func (d *Dispatcher) Quorum() int {
	return d.quorum
}

// Policy returns the send-failure policy in effect.
func (d *Dispatcher) Policy() SendFailurePolicy {
	return d.policy
}

// Dispatch offers ev to its rules and forwards every record they return.
//
// A Message goes to every rule selected by the message's keys. A Timer tick
// goes to every rule, since time conditions are not pattern keyed. All
// selected rules are visited before Dispatch returns.
func (d *Dispatcher) Dispatch(ev ir.Event) {
	d.dispatched.Add(1)

	switch ev.Kind {
	case ir.EventMessage:
		msg := ev.Message
		cur := d.rules.Lookup(msg.Keys())
		slog.Debug("dispatching message",
			"uuid", msg.UUID(),
			"name", msg.Name(),
			"rules", cur.Len(),
		)
		for r, ok := cur.Next(); ok; r, ok = cur.Next() {
			d.forward(r.OnMessage(msg))
		}

	case ir.EventTimer:
		cur := d.rules.All()
		for r, ok := cur.Next(); ok; r, ok = cur.Next() {
			d.forward(r.OnTimer(ev.Timer))
		}

	default:
		slog.Warn("ignoring event of unknown kind", "kind", ev.Kind)
	}
}

// StartLoop consumes commands from q until quorum Exits have been received,
// Stop is called, or q is closed and drained. It blocks the calling
// goroutine. A Dispatcher's loop runs once; after it stops, StartLoop
// returns immediately.
func (d *Dispatcher) StartLoop(q *queue.Queue[ir.Command]) {
	r := reactor.New[ir.CommandKind, ir.Command](&queueDemux{q: q, done: d.cond.Done()}, d.cond)
	r.RegisterHandler(&eventHandler{d: d})
	r.RegisterHandler(&exitHandler{d: d})
	if err := r.Validate(ir.CommandDispatch, ir.CommandExit); err != nil {
		panic(err)
	}

	slog.Info("dispatcher starting",
		"rules", d.rules.Len(),
		"quorum", d.quorum,
	)

	r.HandleEvents()

	st := d.Stats()
	slog.Info("dispatcher stopped",
		"dispatched", st.Dispatched,
		"emitted", st.Emitted,
		"dropped", st.Dropped,
		"exits", st.ExitsReceived,
	)
}

// Stop ends the loop from any goroutine. A loop blocked waiting for a
// command wakes and returns; a command being handled is finished first.
func (d *Dispatcher) Stop() {
	d.cond.Activate()
}

// Stopped reports whether the loop has been told to stop.
func (d *Dispatcher) Stopped() bool {
	return d.cond.IsActive()
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched:    d.dispatched.Load(),
		Emitted:       d.emitted.Load(),
		Dropped:       d.dropped.Load(),
		ExitsReceived: d.exits.Load(),
	}
}

// receiveExit forwards one Exit and stops the loop once quorum is reached.
func (d *Dispatcher) receiveExit() {
	n := d.exits.Add(1)
	d.send(ir.ExitResponse())

	slog.Debug("exit received", "count", n, "quorum", d.quorum)

	if n >= int64(d.quorum) {
		d.cond.Activate()
	}
}

// forward stamps and sends records in order.
func (d *Dispatcher) forward(results []ir.ExecResult) {
	for _, res := range results {
		res.Seq = d.clock.Next()
		id, err := ir.RecordID(res)
		if err != nil {
			// Values are strings and messages are UUIDs, so this only
			// happens if the canonical form changes underneath us.
			slog.Error("record ID failed",
				"context_id", res.ContextID,
				"name", res.Name,
				"error", err,
			)
			continue
		}
		res.ID = id

		if d.send(ir.ResultResponse(res)) {
			d.emitted.Add(1)
		}
	}
}

// send hands resp to Output and applies the send-failure policy.
func (d *Dispatcher) send(resp ir.Response) bool {
	if d.out.Enqueue(resp) {
		return true
	}

	switch d.policy {
	case DropOnSendFailure:
		d.dropped.Add(1)
		slog.Debug("output refused response, dropping",
			"kind", resp.Kind,
			"record_id", resp.Result.ID,
		)
		if d.onDrop != nil {
			d.onDrop(resp)
		}
	}
	return false
}
