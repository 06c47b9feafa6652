package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemStore is the in-memory Store double used by tests and by anything that
// wants the engine without a filesystem.
type MemStore struct {
	mu   sync.Mutex
	snap *Snapshot

	// FailSaves makes every Save fail, for storage-error paths.
	FailSaves bool
}

func NewMemStore() *MemStore {
	return &MemStore{snap: NewSnapshot()}
}

func (s *MemStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap.Clone()
	upgrade(snap, time.Now().UTC())
	return snap, nil
}

func (s *MemStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errors.New("memstore: save disabled")
	}
	s.snap = snap.Clone()
	return nil
}
