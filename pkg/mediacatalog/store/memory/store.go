package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

// Store is an in-memory implementation of mediacatalog.RecordStore. The
// collection is kept in its encoded form so callers never share state with
// the store.
type Store struct {
	mu       sync.RWMutex
	document []byte
	saves    int
}

// New creates an empty in-memory record store
func New() *Store {
	return &Store{}
}

// NewWithCollection creates a store seeded with c
func NewWithCollection(c mediacatalog.Collection) (*Store, error) {
	s := New()
	if err := s.Save(context.Background(), c); err != nil {
		return nil, err
	}
	s.saves = 0
	return s, nil
}

func (s *Store) Load(ctx context.Context) (mediacatalog.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := mediacatalog.Collection{}
	if len(s.document) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(s.document, &c); err != nil {
		return nil, &mediacatalog.StorageError{Backend: "memory", Op: "load", Err: err}
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, c mediacatalog.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		c = mediacatalog.Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return &mediacatalog.StorageError{Backend: "memory", Op: "save", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.document = b
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded since the store was created
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
