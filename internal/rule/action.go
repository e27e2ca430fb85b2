package rule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/correlate/internal/ir"
)

// templateRef matches ${...} references inside action templates.
var templateRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// MessageAction emits one output record when a context closes.
//
// Name and every value are templates. Supported references:
//
//	${context.id}                   rule ID
//	${context.name}                 rule name
//	${context.len}                  number of correlated messages
//	${messages.first.uuid}          UUID of the first message (also .name)
//	${messages.last.values.<key>}   value of <key> on the last message
//
// Unknown references expand to the empty string; all other text is kept
// literally.
type MessageAction struct {
	Name   string
	Values map[string]string
}

// Snapshot is the closed context handed to actions.
type Snapshot struct {
	ContextID   string
	ContextName string
	Messages    []*ir.Message
}

// Execute renders the action against a closed context.
func (a MessageAction) Execute(s Snapshot) ir.ExecResult {
	values := make(map[string]string, len(a.Values))
	for k, tmpl := range a.Values {
		values[k] = expand(tmpl, s)
	}
	msgs := make([]*ir.Message, len(s.Messages))
	copy(msgs, s.Messages)

	return ir.ExecResult{
		ContextID:   s.ContextID,
		ContextName: s.ContextName,
		Name:        expand(a.Name, s),
		Values:      values,
		Messages:    msgs,
	}
}

// expand substitutes every ${...} reference in tmpl.
func expand(tmpl string, s Snapshot) string {
	if !strings.Contains(tmpl, "${") {
		return tmpl
	}
	return templateRef.ReplaceAllStringFunc(tmpl, func(ref string) string {
		return resolve(ref[2:len(ref)-1], s)
	})
}

// resolve looks up one reference path.
func resolve(path string, s Snapshot) string {
	switch path {
	case "context.id":
		return s.ContextID
	case "context.name":
		return s.ContextName
	case "context.len":
		return strconv.Itoa(len(s.Messages))
	}

	rest, ok := strings.CutPrefix(path, "messages.")
	if !ok || len(s.Messages) == 0 {
		return ""
	}

	var msg *ir.Message
	switch {
	case strings.HasPrefix(rest, "first."):
		msg, rest = s.Messages[0], strings.TrimPrefix(rest, "first.")
	case strings.HasPrefix(rest, "last."):
		msg, rest = s.Messages[len(s.Messages)-1], strings.TrimPrefix(rest, "last.")
	default:
		return ""
	}

	switch rest {
	case "uuid":
		return msg.UUID()
	case "name":
		return msg.Name()
	}
	if key, ok := strings.CutPrefix(rest, "values."); ok {
		v, _ := msg.Get(key)
		return v
	}
	return ""
}
