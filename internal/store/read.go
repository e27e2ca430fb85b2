package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/correlate/internal/ir"
)

const selectResults = `
	SELECT id, seq, context_id, context_name, name, record_values, messages
	FROM results
`

// ReadResults returns the records of one context, or of every context when
// contextID is empty. Ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadResults(ctx context.Context, contextID string) ([]ir.ExecResult, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if contextID == "" {
		rows, err = s.db.QueryContext(ctx, selectResults+`
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectResults+`
			WHERE context_id = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`, contextID)
	}
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []ir.ExecResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

// ReadResult retrieves a single record by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadResult(ctx context.Context, id string) (ir.ExecResult, error) {
	row := s.db.QueryRowContext(ctx, selectResults+`WHERE id = ?`, id)
	return scanResult(row)
}

// CountResults returns the number of stored records.
func (s *Store) CountResults(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// MaxSeq returns the highest stored seq, or 0 for an empty store.
// The run command resumes its clock from here so seqs stay unique.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return n.Int64, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (ir.ExecResult, error) {
	var (
		r            ir.ExecResult
		valuesJSON   string
		messagesJSON string
	)
	err := sc.Scan(&r.ID, &r.Seq, &r.ContextID, &r.ContextName, &r.Name, &valuesJSON, &messagesJSON)
	if err == sql.ErrNoRows {
		return ir.ExecResult{}, err
	}
	if err != nil {
		return ir.ExecResult{}, fmt.Errorf("scan result: %w", err)
	}

	if r.Values, err = unmarshalValues(valuesJSON); err != nil {
		return ir.ExecResult{}, fmt.Errorf("result %s: %w", r.ID, err)
	}
	if r.Messages, err = unmarshalMessages(messagesJSON); err != nil {
		return ir.ExecResult{}, fmt.Errorf("result %s: %w", r.ID, err)
	}
	return r, nil
}
