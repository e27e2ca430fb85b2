package ir

import "time"

// EventKind distinguishes between event kinds.
type EventKind int

const (
	// EventMessage carries one log message.
	EventMessage EventKind = iota + 1
	// EventTimer carries a periodic tick.
	EventTimer
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// TimerEvent is a periodic tick. Elapsed is the time since the previous tick.
type TimerEvent struct {
	Elapsed time.Duration
}

// Event is either a Message or a Timer tick. Only the field matching Kind
// is set. Events are never mutated after creation.
type Event struct {
	Kind    EventKind
	Message *Message
	Timer   TimerEvent
}

// MessageEvent wraps a message into an Event.
func MessageEvent(m *Message) Event {
	return Event{Kind: EventMessage, Message: m}
}

// TimerTick wraps a tick of the given length into an Event.
func TimerTick(elapsed time.Duration) Event {
	return Event{Kind: EventTimer, Timer: TimerEvent{Elapsed: elapsed}}
}

// CommandKind is the handler key of a Command.
type CommandKind int

const (
	// CommandDispatch asks the dispatcher to route an event to its rules.
	CommandDispatch CommandKind = iota + 1
	// CommandExit is one producer's shutdown signal.
	CommandExit
)

func (k CommandKind) String() string {
	switch k {
	case CommandDispatch:
		return "dispatch"
	case CommandExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Command is a control message on the dispatcher's input queue.
type Command struct {
	Kind  CommandKind
	Event Event
}

// Dispatch builds a Dispatch command.
func Dispatch(ev Event) Command {
	return Command{Kind: CommandDispatch, Event: ev}
}

// Exit builds an Exit command.
func Exit() Command {
	return Command{Kind: CommandExit}
}

// HandlerKey returns the key used to route the command to its handler.
func (c Command) HandlerKey() CommandKind {
	return c.Kind
}

// ResponseKind distinguishes output queue elements.
type ResponseKind int

const (
	// ResponseResult carries one output record.
	ResponseResult ResponseKind = iota + 1
	// ResponseExit is a forwarded shutdown signal.
	ResponseExit
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseResult:
		return "result"
	case ResponseExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Response is an element of the output queue read by the action stage.
type Response struct {
	Kind   ResponseKind
	Result ExecResult
}

// ResultResponse wraps an output record.
func ResultResponse(r ExecResult) Response {
	return Response{Kind: ResponseResult, Result: r}
}

// ExitResponse builds a forwarded Exit.
func ExitResponse() Response {
	return Response{Kind: ResponseExit}
}
