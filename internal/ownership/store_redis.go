package ownership

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"credmint/internal/sentinel"
)

const keyPrefix = "credmint:owned:"

// RedisStore keeps one hash per address, field = collection ID, value = JSON.
// Each write refreshes the hash TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(address string) string {
	return keyPrefix + strings.ToLower(address)
}

func (s *RedisStore) Put(ctx context.Context, c Credential) error {
	c.Address = strings.ToLower(c.Address)
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	k := key(c.Address)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, c.CollectionID, payload)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, address, collectionID string) (Credential, error) {
	raw, err := s.client.HGet(ctx, key(address), collectionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credential{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("load credential: %w", err)
	}
	var c Credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return c, nil
}

func (s *RedisStore) List(ctx context.Context, address string) ([]Credential, error) {
	fields, err := s.client.HGetAll(ctx, key(address)).Result()
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	out := make([]Credential, 0, len(fields))
	for field, raw := range fields {
		var c Credential
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", field, err)
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Credential) int { return cmp.Compare(a.CollectionID, b.CollectionID) })
	return out, nil
}
