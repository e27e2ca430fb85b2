package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/correlate/internal/ir"
)

// WriteResult inserts an output record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a record already
// stored under the same ID is silently ignored.
//
// The record must carry its ID; the dispatcher stamps it before forwarding.
func (s *Store) WriteResult(ctx context.Context, r ir.ExecResult) error {
	if r.ID == "" {
		return errors.New("write result: record has no id")
	}

	valuesJSON, err := marshalValues(r.Values)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	messagesJSON, err := marshalMessages(r.Messages)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(id, seq, context_id, context_name, name, record_values, messages)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		r.ContextID,
		r.ContextName,
		r.Name,
		valuesJSON,
		messagesJSON,
	)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
