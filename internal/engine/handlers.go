package engine

import (
	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
)

// eventHandler routes Dispatch commands to the rules.
type eventHandler struct {
	d *Dispatcher
}

func (h *eventHandler) HandlerKey() ir.CommandKind { return ir.CommandDispatch }

func (h *eventHandler) HandleEvent(cmd ir.Command) {
	if cmd.Kind != ir.CommandDispatch {
		panic(&UnexpectedCommandError{Handler: "event", Got: cmd.Kind})
	}
	h.d.Dispatch(cmd.Event)
}

// exitHandler runs the exit quorum protocol.
type exitHandler struct {
	d *Dispatcher
}

func (h *exitHandler) HandlerKey() ir.CommandKind { return ir.CommandExit }

func (h *exitHandler) HandleEvent(cmd ir.Command) {
	if cmd.Kind != ir.CommandExit {
		panic(&UnexpectedCommandError{Handler: "exit", Got: cmd.Kind})
	}
	h.d.receiveExit()
}

// queueDemux feeds the reactor from the control queue. It reports end of
// stream when the queue is closed and drained, or when done fires while
// the queue is empty.
type queueDemux struct {
	q    *queue.Queue[ir.Command]
	done <-chan struct{}
}

func (m *queueDemux) Select() (ir.Command, bool) {
	return m.q.DequeueOrDone(m.done)
}
