package rule

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Kind selects the rule implementation built from a Config.
type Kind string

const (
	// KindLinear accumulates routed messages until a closing condition.
	KindLinear Kind = "linear"
)

// ValidKinds lists the kinds Config.Build understands.
var ValidKinds = []Kind{KindLinear}

// Config is the validated, declarative form of a rule.
type Config struct {
	ID         string
	Name       string
	Kind       Kind
	Patterns   []string
	Conditions Conditions
	Actions    []MessageAction
}

// Conditions control when a linear context opens and closes.
//
// A zero Timeout or RenewTimeout disables that timer. MaxSize of zero
// means unlimited.
type Conditions struct {
	Timeout      time.Duration
	RenewTimeout time.Duration
	FirstOpens   bool
	LastCloses   bool
	MaxSize      int
}

// UnknownKindError is raised when a Config names a kind with no
// implementation. It indicates a config that skipped validation.
type UnknownKindError struct {
	ID   string
	Kind Kind
}

// Error implements the error interface.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("rule %s: unknown kind %q", e.ID, e.Kind)
}

// IsUnknownKindError returns true if err is an UnknownKindError.
// Uses errors.As to handle wrapped errors.
func IsUnknownKindError(err error) bool {
	var uk *UnknownKindError
	return errors.As(err, &uk)
}

// Build turns the config into a Rule. An empty Kind means linear.
// Build panics with *UnknownKindError for any other kind: configs reach
// this point only after validation, so a mismatch is a programming error.
func (c Config) Build() Rule {
	switch c.Kind {
	case "", KindLinear:
		return NewLinearContext(c)
	default:
		panic(&UnknownKindError{ID: c.ID, Kind: c.Kind})
	}
}

// IsValidKind reports whether k is empty or one of ValidKinds.
func IsValidKind(k Kind) bool {
	return k == "" || slices.Contains(ValidKinds, k)
}
