package rule

import (
	"slices"
	"time"

	"github.com/roach88/correlate/internal/ir"
)

// LinearContext collects the messages routed to it into a single open
// context and runs its actions when the context closes.
//
// Opening: any routed message opens a closed context, unless FirstOpens
// is set and the message does not match the first pattern.
//
// Closing, checked after each message: the context reaches MaxSize, or
// LastCloses is set and the message matches the last pattern. Checked on
// each timer tick: Timeout has elapsed since opening, or RenewTimeout has
// elapsed since the last message.
//
// Closing runs every action in order and resets the context.
type LinearContext struct {
	id         string
	name       string
	patterns   []string
	conditions Conditions
	actions    []MessageAction

	opened    bool
	messages  []*ir.Message
	elapsed   time.Duration
	sinceLast time.Duration
}

// NewLinearContext builds a closed context from cfg.
func NewLinearContext(cfg Config) *LinearContext {
	return &LinearContext{
		id:         cfg.ID,
		name:       cfg.Name,
		patterns:   slices.Clone(cfg.Patterns),
		conditions: cfg.Conditions,
		actions:    slices.Clone(cfg.Actions),
	}
}

// ID returns the rule ID.
func (c *LinearContext) ID() string { return c.id }

// Name returns the rule name.
func (c *LinearContext) Name() string { return c.name }

// Patterns returns a copy of the subscription patterns.
func (c *LinearContext) Patterns() []string { return slices.Clone(c.patterns) }

// IsOpen reports whether the context is collecting messages.
func (c *LinearContext) IsOpen() bool { return c.opened }

// Len returns the number of messages in the open context.
func (c *LinearContext) Len() int { return len(c.messages) }

// OnMessage adds msg to the context, opening it if needed.
func (c *LinearContext) OnMessage(msg *ir.Message) []ir.ExecResult {
	if !c.opened {
		if c.conditions.FirstOpens && len(c.patterns) > 0 && !msg.Matches(c.patterns[0]) {
			return nil
		}
		c.opened = true
		c.elapsed = 0
	}

	c.messages = append(c.messages, msg)
	c.sinceLast = 0

	if c.conditions.MaxSize > 0 && len(c.messages) >= c.conditions.MaxSize {
		return c.close()
	}
	if c.conditions.LastCloses && len(c.patterns) > 0 && msg.Matches(c.patterns[len(c.patterns)-1]) {
		return c.close()
	}
	return nil
}

// OnTimer advances the context's timers and closes it when one expires.
func (c *LinearContext) OnTimer(tick ir.TimerEvent) []ir.ExecResult {
	if !c.opened {
		return nil
	}

	c.elapsed += tick.Elapsed
	c.sinceLast += tick.Elapsed

	if c.conditions.Timeout > 0 && c.elapsed >= c.conditions.Timeout {
		return c.close()
	}
	if c.conditions.RenewTimeout > 0 && c.sinceLast >= c.conditions.RenewTimeout {
		return c.close()
	}
	return nil
}

// close runs the actions over the collected messages and resets state.
func (c *LinearContext) close() []ir.ExecResult {
	snap := Snapshot{ContextID: c.id, ContextName: c.name, Messages: c.messages}

	var results []ir.ExecResult
	for _, a := range c.actions {
		results = append(results, a.Execute(snap))
	}

	c.opened = false
	c.messages = nil
	c.elapsed = 0
	c.sinceLast = 0
	return results
}
