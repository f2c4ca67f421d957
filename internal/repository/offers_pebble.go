package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/escrow"
)

var _ escrow.Store = (*PebbleOfferStore)(nil)

var ErrDBClosed = errors.New("database is closed")

func OpenPebble(path string) (*pebble.DB, error) {
	return pebble.Open(path, &pebble.Options{})
}

// PebbleOfferStore persists offer records in an embedded pebble database.
// Several escrow instances may share one database; each gets its own key
// prefix.
type PebbleOfferStore struct {
	db     *pebble.DB
	prefix []byte

	// serializes the read-check-delete in Delete
	mu sync.Mutex
}

func NewPebbleOfferStore(db *pebble.DB, namespace string) *PebbleOfferStore {
	return &PebbleOfferStore{
		db:     db,
		prefix: []byte("offers/" + namespace + "/"),
	}
}

func (s *PebbleOfferStore) key(offerKey common.Hash) []byte {
	k := make([]byte, 0, len(s.prefix)+common.HashLength)
	k = append(k, s.prefix...)
	return append(k, offerKey.Bytes()...)
}

func (s *PebbleOfferStore) Get(ctx context.Context, offerKey common.Hash) (escrow.Record, error) {
	if s.db == nil {
		return escrow.Record{}, ErrDBClosed
	}
	val, closer, err := s.db.Get(s.key(offerKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return escrow.Record{}, nil
		}
		return escrow.Record{}, err
	}
	defer closer.Close()
	return decodeRecord(string(val)), nil
}

func (s *PebbleOfferStore) Put(ctx context.Context, offerKey common.Hash, rec escrow.Record) error {
	if s.db == nil {
		return ErrDBClosed
	}
	if !rec.Exists {
		return s.db.Delete(s.key(offerKey), pebble.Sync)
	}
	return s.db.Set(s.key(offerKey), []byte(encodeRecord(rec)), pebble.Sync)
}

func (s *PebbleOfferStore) Delete(ctx context.Context, offerKey common.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Get(ctx, offerKey)
	if err != nil {
		return false, err
	}
	if rec.State() != escrow.StateActive {
		return false, nil
	}
	if err := s.db.Delete(s.key(offerKey), pebble.Sync); err != nil {
		return false, err
	}
	return true, nil
}
