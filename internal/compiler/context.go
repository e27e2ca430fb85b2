package compiler

import (
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"github.com/google/uuid"

	"github.com/roach88/correlate/internal/rule"
)

// CompileContext parses a CUE value into a rule.Config.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the context struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`context: "ssh-burst": { ... }`)
//	cfg, err := CompileContext(v.LookupPath(cue.ParsePath(`context."ssh-burst"`)))
//
// The struct label becomes the context name unless a "name" field is set.
func CompileContext(v cue.Value) (*rule.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := &rule.Config{Kind: rule.KindLinear}

	// e.g. `context: "ssh-burst": { ... }` → name is "ssh-burst"
	if labels := v.Path().Selectors(); len(labels) > 0 {
		cfg.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	var err error
	cfg.ID, err = parseUUID(v)
	if err != nil {
		return nil, err
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.Name = name
	}

	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		kind, err := kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if !rule.IsValidKind(rule.Kind(kind)) {
			return nil, &CompileError{
				Field:   "kind",
				Message: fmt.Sprintf("unknown context kind %q, must be %q", kind, rule.KindLinear),
				Pos:     kindVal.Pos(),
			}
		}
		cfg.Kind = rule.Kind(kind)
	}

	cfg.Patterns, err = parsePatterns(v)
	if err != nil {
		return nil, err
	}

	cfg.Conditions, err = parseConditions(v)
	if err != nil {
		return nil, err
	}

	cfg.Actions, err = parseActions(v)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseUUID extracts and validates the context UUID (required).
func parseUUID(v cue.Value) (string, error) {
	idVal := v.LookupPath(cue.ParsePath("uuid"))
	if !idVal.Exists() {
		return "", &CompileError{
			Field:   "uuid",
			Message: "uuid is required",
			Pos:     v.Pos(),
		}
	}
	raw, err := idVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &CompileError{
			Field:   "uuid",
			Message: fmt.Sprintf("invalid uuid %q: %v", raw, err),
			Pos:     idVal.Pos(),
		}
	}
	// Canonical lower-case hyphenated form, so lookups by ID are exact.
	return id.String(), nil
}

// parsePatterns extracts the optional pattern list.
// An absent or empty list makes the context a wildcard.
func parsePatterns(v cue.Value) ([]string, error) {
	patVal := v.LookupPath(cue.ParsePath("patterns"))
	if !patVal.Exists() {
		return nil, nil
	}

	iter, err := patVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var patterns []string
	for i := 0; iter.Next(); i++ {
		p, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("patterns[%d]", i),
				Message: "pattern must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		if p == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("patterns[%d]", i),
				Message: "pattern must not be empty",
				Pos:     iter.Value().Pos(),
			}
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// parseConditions extracts the conditions block (required: timeout).
func parseConditions(v cue.Value) (rule.Conditions, error) {
	var cond rule.Conditions

	condVal := v.LookupPath(cue.ParsePath("conditions"))
	if !condVal.Exists() {
		return cond, &CompileError{
			Field:   "conditions",
			Message: "conditions are required",
			Pos:     v.Pos(),
		}
	}

	timeoutVal := condVal.LookupPath(cue.ParsePath("timeout"))
	if !timeoutVal.Exists() {
		return cond, &CompileError{
			Field:   "conditions.timeout",
			Message: "timeout is required",
			Pos:     condVal.Pos(),
		}
	}
	var err error
	cond.Timeout, err = parseDuration(timeoutVal, "conditions.timeout")
	if err != nil {
		return cond, err
	}

	if renewVal := condVal.LookupPath(cue.ParsePath("renew_timeout")); renewVal.Exists() {
		cond.RenewTimeout, err = parseDuration(renewVal, "conditions.renew_timeout")
		if err != nil {
			return cond, err
		}
	}

	if cond.FirstOpens, err = optionalBool(condVal, "first_opens"); err != nil {
		return cond, err
	}
	if cond.LastCloses, err = optionalBool(condVal, "last_closes"); err != nil {
		return cond, err
	}

	if sizeVal := condVal.LookupPath(cue.ParsePath("max_size")); sizeVal.Exists() {
		n, err := sizeVal.Int64()
		if err != nil {
			return cond, &CompileError{
				Field:   "conditions.max_size",
				Message: "max_size must be an integer",
				Pos:     sizeVal.Pos(),
			}
		}
		cond.MaxSize = int(n)
	}

	return cond, nil
}

// parseDuration accepts a Go duration string ("90s", "5m") or an integer
// number of seconds.
func parseDuration(v cue.Value, field string) (time.Duration, error) {
	if s, err := v.String(); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("invalid duration %q", s),
				Pos:     v.Pos(),
			}
		}
		return d, nil
	}
	if n, err := v.Int64(); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return 0, &CompileError{
		Field:   field,
		Message: "duration must be a string like \"30s\" or an integer number of seconds",
		Pos:     v.Pos(),
	}
}

func optionalBool(v cue.Value, name string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(name))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, &CompileError{
			Field:   "conditions." + name,
			Message: name + " must be a boolean",
			Pos:     bv.Pos(),
		}
	}
	return b, nil
}

// parseActions extracts the action list. Each element holds exactly one
// action kind; "message" is the only kind.
func parseActions(v cue.Value) ([]rule.MessageAction, error) {
	actVal := v.LookupPath(cue.ParsePath("actions"))
	if !actVal.Exists() {
		return nil, nil
	}

	iter, err := actVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var actions []rule.MessageAction
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("actions[%d]", i)
		elem := iter.Value()

		fields, err := elem.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fields.Next() {
			if fields.Label() != "message" {
				return nil, &CompileError{
					Field:   field,
					Message: fmt.Sprintf("unknown action %q, must be \"message\"", fields.Label()),
					Pos:     fields.Value().Pos(),
				}
			}
		}

		msgVal := elem.LookupPath(cue.ParsePath("message"))
		if !msgVal.Exists() {
			return nil, &CompileError{
				Field:   field,
				Message: "action requires a 'message' block",
				Pos:     elem.Pos(),
			}
		}

		action, err := parseMessageAction(msgVal, field+".message")
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func parseMessageAction(v cue.Value, field string) (rule.MessageAction, error) {
	var action rule.MessageAction

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return action, &CompileError{
			Field:   field + ".name",
			Message: "message action requires 'name'",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return action, formatCUEError(err)
	}
	action.Name = name

	valuesVal := v.LookupPath(cue.ParsePath("values"))
	if !valuesVal.Exists() {
		return action, nil
	}

	iter, err := valuesVal.Fields()
	if err != nil {
		return action, formatCUEError(err)
	}
	action.Values = make(map[string]string)
	for iter.Next() {
		key := iter.Label()
		tmpl, err := iter.Value().String()
		if err != nil {
			return action, &CompileError{
				Field:   fmt.Sprintf("%s.values.%s", field, key),
				Message: "value must be a string template",
				Pos:     iter.Value().Pos(),
			}
		}
		action.Values[key] = tmpl
	}
	return action, nil
}
