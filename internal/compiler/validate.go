package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/correlate/internal/rule"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateUUID     = "E101" // two contexts share a uuid
	ErrInvalidTimeout    = "E102" // timeout must be positive
	ErrInvalidRenew      = "E103" // renew_timeout negative or above timeout
	ErrInvalidMaxSize    = "E104" // max_size negative
	ErrConditionPatterns = "E105" // first_opens/last_closes without patterns
	ErrEmptyActionName   = "E106" // action name is blank
	ErrNoActions         = "E107" // context would never emit anything
	ErrUnknownKind       = "E108" // kind has no implementation
)

// ValidationError represents a semantic validation error.
type ValidationError struct {
	Context string `json:"context"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Context, e.Field, e.Message)
}

// Validate checks a compiled rule set. Returns all errors found (does not
// fail-fast), in declaration order.
func Validate(cfgs []rule.Config) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]string, len(cfgs))

	for _, cfg := range cfgs {
		add := func(code, field, msg string) {
			errs = append(errs, ValidationError{Context: cfg.Name, Field: field, Message: msg, Code: code})
		}

		if prev, ok := seen[cfg.ID]; ok {
			add(ErrDuplicateUUID, "uuid", fmt.Sprintf("uuid %s already used by context %q", cfg.ID, prev))
		} else {
			seen[cfg.ID] = cfg.Name
		}

		if !rule.IsValidKind(cfg.Kind) {
			add(ErrUnknownKind, "kind", fmt.Sprintf("unknown kind %q", cfg.Kind))
		}

		c := cfg.Conditions
		if c.Timeout <= 0 {
			add(ErrInvalidTimeout, "conditions.timeout", "timeout must be positive")
		}
		if c.RenewTimeout < 0 {
			add(ErrInvalidRenew, "conditions.renew_timeout", "renew_timeout must not be negative")
		} else if c.RenewTimeout > 0 && c.Timeout > 0 && c.RenewTimeout > c.Timeout {
			add(ErrInvalidRenew, "conditions.renew_timeout",
				fmt.Sprintf("renew_timeout %s exceeds timeout %s", c.RenewTimeout, c.Timeout))
		}
		if c.MaxSize < 0 {
			add(ErrInvalidMaxSize, "conditions.max_size", "max_size must not be negative")
		}
		if len(cfg.Patterns) == 0 {
			if c.FirstOpens {
				add(ErrConditionPatterns, "conditions.first_opens", "first_opens requires at least one pattern")
			}
			if c.LastCloses {
				add(ErrConditionPatterns, "conditions.last_closes", "last_closes requires at least one pattern")
			}
		}

		if len(cfg.Actions) == 0 {
			add(ErrNoActions, "actions", "context has no actions and would never emit")
		}
		for i, a := range cfg.Actions {
			if strings.TrimSpace(a.Name) == "" {
				add(ErrEmptyActionName, fmt.Sprintf("actions[%d].message.name", i), "name must not be empty")
			}
		}
	}

	return errs
}
