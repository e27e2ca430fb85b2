package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/rule"
)

func validConfig() rule.Config {
	return rule.Config{
		ID:         sshUUID,
		Name:       "ssh-burst",
		Kind:       rule.KindLinear,
		Patterns:   []string{"ssh.fail"},
		Conditions: rule.Conditions{Timeout: time.Minute},
		Actions:    []rule.MessageAction{{Name: "alert"}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate([]rule.Config{validConfig()}))
}

func TestValidateDuplicateUUID(t *testing.T) {
	a := validConfig()
	b := validConfig()
	b.Name = "copy"

	errs := Validate([]rule.Config{a, b})

	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateUUID, errs[0].Code)
	assert.Equal(t, "copy", errs[0].Context)
	assert.Contains(t, errs[0].Message, `"ssh-burst"`)
}

func TestValidateConditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rule.Config)
		want   []string
	}{
		{"zero timeout", func(c *rule.Config) { c.Conditions.Timeout = 0 }, []string{ErrInvalidTimeout}},
		{"negative renew", func(c *rule.Config) { c.Conditions.RenewTimeout = -time.Second }, []string{ErrInvalidRenew}},
		{"renew above timeout", func(c *rule.Config) { c.Conditions.RenewTimeout = time.Hour }, []string{ErrInvalidRenew}},
		{"negative max size", func(c *rule.Config) { c.Conditions.MaxSize = -1 }, []string{ErrInvalidMaxSize}},
		{"first opens without patterns", func(c *rule.Config) {
			c.Patterns = nil
			c.Conditions.FirstOpens = true
			c.Conditions.LastCloses = true
		}, []string{ErrConditionPatterns, ErrConditionPatterns}},
		{"no actions", func(c *rule.Config) { c.Actions = nil }, []string{ErrNoActions}},
		{"blank action name", func(c *rule.Config) { c.Actions[0].Name = "  " }, []string{ErrEmptyActionName}},
		{"unknown kind", func(c *rule.Config) { c.Kind = "tree" }, []string{ErrUnknownKind}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, codes(Validate([]rule.Config{cfg})))
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Context: "c", Field: "uuid", Message: "dup", Code: ErrDuplicateUUID}
	assert.Equal(t, "[E101] c: uuid: dup", err.Error())
}
