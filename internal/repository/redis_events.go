package repository

import (
	"context"
	"encoding/json"

	"github.com/letmeget/swapgate/internal/model"
)

// RedisEventRepo keeps the most recent events in a capped list, newest
// first.
type RedisEventRepo struct {
	client  *RedisClient
	listKey string
	listMax int
}

func NewRedisEventRepo(client *RedisClient, listKey string, listMax int) *RedisEventRepo {
	if listKey == "" {
		listKey = client.Key("events")
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisEventRepo{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisEventRepo) Insert(ctx context.Context, entry *model.EventRecord) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := r.client.Client.TxPipeline()
	pipe.LPush(ctx, r.listKey, payload)
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisEventRepo) List(ctx context.Context, filter model.EventFilter) ([]*model.EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	fetch := limit * 5
	if fetch < 100 {
		fetch = 100
	}
	if fetch > r.listMax {
		fetch = r.listMax
	}
	items, err := r.client.Client.LRange(ctx, r.listKey, 0, int64(fetch-1)).Result()
	if err != nil {
		return nil, err
	}
	results := make([]*model.EventRecord, 0, limit)
	for _, raw := range items {
		var entry model.EventRecord
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if !filter.Match(&entry) {
			continue
		}
		results = append(results, &entry)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}
