package escrow

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// State is the lifecycle position of an OfferKey. A consumed offer is
// deleted and therefore reads back as StateAbsent.
type State string

const (
	StateAbsent  State = "absent"
	StateActive  State = "active"
	StateRevoked State = "revoked"
)

// Record is everything the registry persists about an offer. All swap
// parameters are re-derived from the caller's arguments.
type Record struct {
	Exists  bool `json:"exists"`
	Revoked bool `json:"revoked"`
}

func (r Record) State() State {
	switch {
	case !r.Exists:
		return StateAbsent
	case r.Revoked:
		return StateRevoked
	default:
		return StateActive
	}
}

// Store persists offer records of a single escrow instance. Get on an
// unknown key returns the zero Record. Delete removes the record only if it
// is Active and reports whether it did, so a settlement that lost a race
// can be rolled back.
type Store interface {
	Get(ctx context.Context, key common.Hash) (Record, error)
	Put(ctx context.Context, key common.Hash, rec Record) error
	Delete(ctx context.Context, key common.Hash) (bool, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	records map[common.Hash]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[common.Hash]Record)}
}

func (s *MemoryStore) Get(_ context.Context, key common.Hash) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[key], nil
}

func (s *MemoryStore) Put(_ context.Context, key common.Hash, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !rec.Exists {
		delete(s.records, key)
		return nil
	}
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key common.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[key].State() != StateActive {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
