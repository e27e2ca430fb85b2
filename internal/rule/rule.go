package rule

import "github.com/roach88/correlate/internal/ir"

// Rule is a correlation unit as seen by the dispatcher.
//
// Patterns is read once when the rule is inserted into a Map. OnMessage
// and OnTimer return zero or more output records; the dispatcher forwards
// them in the returned order. Rules must not mutate or retain the message
// beyond what they need to build output.
type Rule interface {
	ID() string
	Patterns() []string
	OnMessage(msg *ir.Message) []ir.ExecResult
	OnTimer(tick ir.TimerEvent) []ir.ExecResult
}
