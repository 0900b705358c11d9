// Package inmem provides an export.Store that keeps records in memory. Records
// are held in their binary encoding so that callers never share memory with
// the store.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/google/uuid"
)

// Store is an in-memory export.Store. It is safe for concurrent use.
type Store struct {
	mtx sync.RWMutex

	records   map[uuid.UUID][]byte
	byGrammar map[string][]uuid.UUID
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records:   make(map[uuid.UUID][]byte),
		byGrammar: make(map[string][]uuid.UUID),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Write(ctx context.Context, r export.Record) (export.Record, error) {
	r, err := export.Prepare(r)
	if err != nil {
		return export.Record{}, err
	}

	data, err := r.MarshalBinary()
	if err != nil {
		return export.Record{}, fmt.Errorf("encoding record: %w", err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.records[r.ID]; ok {
		return export.Record{}, sgerr.ErrAlreadyExists
	}

	s.records[r.ID] = data
	key := strings.ToLower(r.Grammar)
	s.byGrammar[key] = append(s.byGrammar[key], r.ID)

	return s.decode(r.ID)
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (export.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.decode(id)
}

// GetAll returns all records ordered by creation time, then by ID.
func (s *Store) GetAll(ctx context.Context) ([]export.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	all := make([]export.Record, 0, len(s.records))
	for id := range s.records {
		r, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}

	sortRecords(all)
	return all, nil
}

// GetAllByGrammar returns all records of the named grammar in the order they
// were written. Case is ignored.
func (s *Store) GetAllByGrammar(ctx context.Context, grammar string) ([]export.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ids := s.byGrammar[strings.ToLower(grammar)]
	all := make([]export.Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}

	return all, nil
}

// decode must be called with the lock held.
func (s *Store) decode(id uuid.UUID) (export.Record, error) {
	data, ok := s.records[id]
	if !ok {
		return export.Record{}, sgerr.ErrNotFound
	}

	var r export.Record
	if err := r.UnmarshalBinary(data); err != nil {
		return export.Record{}, sgerr.WrapStore(fmt.Sprintf("stored data for %s is invalid", id), err)
	}
	return r, nil
}

func sortRecords(all []export.Record) {
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Created.Equal(all[j].Created) {
			return all[i].Created.Before(all[j].Created)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
}
