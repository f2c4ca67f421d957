package repository

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/letmeget/swapgate/internal/escrow"
)

var _ escrow.Store = (*RedisOfferStore)(nil)

const (
	recordActive  = "active"
	recordRevoked = "revoked"
)

// deleteActive removes KEYS[1] only while it still holds an active record.
var deleteActive = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOfferStore keeps one string per OfferKey under the escrow's
// namespace: "active" or "revoked". Absent keys are absent offers.
type RedisOfferStore struct {
	client    *RedisClient
	namespace string
}

func NewRedisOfferStore(client *RedisClient, namespace string) *RedisOfferStore {
	return &RedisOfferStore{client: client, namespace: namespace}
}

func (s *RedisOfferStore) key(offerKey common.Hash) string {
	return s.client.Key("offers", s.namespace, offerKey.Hex())
}

func (s *RedisOfferStore) Get(ctx context.Context, offerKey common.Hash) (escrow.Record, error) {
	val, err := s.client.Client.Get(ctx, s.key(offerKey)).Result()
	if errors.Is(err, redis.Nil) {
		return escrow.Record{}, nil
	}
	if err != nil {
		return escrow.Record{}, err
	}
	return decodeRecord(val), nil
}

func (s *RedisOfferStore) Put(ctx context.Context, offerKey common.Hash, rec escrow.Record) error {
	if !rec.Exists {
		return s.client.Client.Del(ctx, s.key(offerKey)).Err()
	}
	return s.client.Client.Set(ctx, s.key(offerKey), encodeRecord(rec), 0).Err()
}

func (s *RedisOfferStore) Delete(ctx context.Context, offerKey common.Hash) (bool, error) {
	n, err := deleteActive.Run(ctx, s.client.Client, []string{s.key(offerKey)}, recordActive).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func encodeRecord(rec escrow.Record) string {
	if rec.Revoked {
		return recordRevoked
	}
	return recordActive
}

func decodeRecord(val string) escrow.Record {
	return escrow.Record{Exists: true, Revoked: val == recordRevoked}
}
