package ir

// ExecResult is one output record produced when a rule fires.
//
// Rules fill in the context fields, Name, Values and Messages. The
// dispatcher stamps Seq and ID before forwarding the record, so rules stay
// free of any global ordering state.
type ExecResult struct {
	ID          string            `json:"id"`
	Seq         int64             `json:"seq"`
	ContextID   string            `json:"context_id"`
	ContextName string            `json:"context_name,omitempty"`
	Name        string            `json:"name"`
	Values      map[string]string `json:"values,omitempty"`
	Messages    []*Message        `json:"messages,omitempty"`
}

// MessageUUIDs returns the UUIDs of the messages in the record, in order.
func (r ExecResult) MessageUUIDs() []string {
	ids := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		ids[i] = m.UUID()
	}
	return ids
}

// canonicalMap is the identity-relevant projection of the record.
func (r ExecResult) canonicalMap() map[string]any {
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	uuids := make([]any, len(r.Messages))
	for i, id := range r.MessageUUIDs() {
		uuids[i] = id
	}
	return map[string]any{
		"context_id": r.ContextID,
		"name":       r.Name,
		"values":     values,
		"seq":        r.Seq,
		"messages":   uuids,
	}
}
