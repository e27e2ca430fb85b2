package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/correlate/internal/ir"
)

// marshalValues converts record values to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so identical records store identical bytes.
func marshalValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// marshalMessages converts the correlated messages to a JSON array.
func marshalMessages(msgs []*ir.Message) (string, error) {
	if msgs == nil {
		msgs = []*ir.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // keep <, > and & readable in log text
	if err := enc.Encode(msgs); err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func unmarshalValues(data string) (map[string]string, error) {
	var values map[string]string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func unmarshalMessages(data string) ([]*ir.Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	msgs := make([]*ir.Message, len(raw))
	for i, r := range raw {
		m, err := ir.ParseMessage(r)
		if err != nil {
			return nil, fmt.Errorf("unmarshal message %d: %w", i, err)
		}
		msgs[i] = m
	}
	return msgs, nil
}
