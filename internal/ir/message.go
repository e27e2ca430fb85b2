package ir

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Message is one classified log record.
//
// A Message is read-only after construction: its fields are unexported and
// every accessor returns copies. The dispatcher hands the same *Message to
// every rule that is interested in it, so no rule may observe another
// rule's changes.
type Message struct {
	uuid   string
	name   string
	values map[string]string
}

// NewMessage builds a Message. The values map is copied.
func NewMessage(uuid, name string, values map[string]string) *Message {
	m := &Message{
		uuid:   uuid,
		name:   name,
		values: make(map[string]string, len(values)),
	}
	maps.Copy(m.values, values)
	return m
}

// UUID returns the identifier of the pattern that classified the message.
func (m *Message) UUID() string { return m.uuid }

// Name returns the human-readable pattern name.
func (m *Message) Name() string { return m.name }

// Get returns a single value by key.
func (m *Message) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Values returns a copy of all key-value pairs.
func (m *Message) Values() map[string]string {
	return maps.Clone(m.values)
}

// ValueKeys returns the value keys in sorted order.
func (m *Message) ValueKeys() []string {
	return slices.Sorted(maps.Keys(m.values))
}

// Keys returns the candidate lookup keys for this message: its UUID and
// its name, skipping empty ones. Rules subscribe to either form.
func (m *Message) Keys() []string {
	keys := make([]string, 0, 2)
	if m.uuid != "" {
		keys = append(keys, m.uuid)
	}
	if m.name != "" && m.name != m.uuid {
		keys = append(keys, m.name)
	}
	return keys
}

// Matches reports whether pattern names this message by UUID or name.
func (m *Message) Matches(pattern string) bool {
	return pattern != "" && (pattern == m.uuid || pattern == m.name)
}

// messageJSON is the JSON-lines wire form used by sources and sinks.
type messageJSON struct {
	UUID   string            `json:"uuid"`
	Name   string            `json:"name,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{UUID: m.uuid, Name: m.name, Values: m.values})
}

// UnmarshalJSON implements json.Unmarshaler, so records read back from a
// JSON-lines sink decode with their messages.
func (m *Message) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMessage(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// ParseMessage decodes one JSON message line.
// A message must carry at least a uuid or a name; otherwise no rule could
// ever subscribe to it by key.
func ParseMessage(data []byte) (*Message, error) {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if raw.UUID == "" && raw.Name == "" {
		return nil, fmt.Errorf("parse message: uuid or name is required")
	}
	return NewMessage(raw.UUID, raw.Name, raw.Values), nil
}
