package sink

import (
	"context"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/store"
)

// Store persists records in the SQLite audit store.
type Store struct {
	s *store.Store
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{s: s}, nil
}

// NewStore wraps an already open store. Close closes it.
func NewStore(s *store.Store) *Store {
	return &Store{s: s}
}

// Write implements Sink. Rewriting a stored record is a no-op.
func (s *Store) Write(ctx context.Context, r ir.ExecResult) error {
	return s.s.WriteResult(ctx, r)
}

// MaxSeq returns the highest seq already stored.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	return s.s.MaxSeq(ctx)
}

// Close implements Sink.
func (s *Store) Close() error {
	return s.s.Close()
}
