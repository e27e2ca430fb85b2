package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/roach88/correlate/internal/ir"
)

// JSON writes one record per line.
type JSON struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSON writes to w. Close does not close w.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

// OpenJSONFile appends records to the file at path, creating it if needed.
// Close closes the file.
func OpenJSONFile(path string) (*JSON, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	j := NewJSON(f)
	j.closer = f
	return j, nil
}

// Write implements Sink.
func (j *JSON) Write(_ context.Context, r ir.ExecResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Close implements Sink.
func (j *JSON) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}
