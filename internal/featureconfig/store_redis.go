package featureconfig

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisDocumentKey = "featureconfig:document"

// RedisStore keeps the document as a single JSON value in redis. No TTL is
// applied: the stored value is last-known-good, not a cache entry that may
// silently expire.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads the stored document. A missing key or an undecodable payload
// returns ErrNoDocument; transport failures are surfaced as errors.
func (s *RedisStore) Load(ctx context.Context) (Document, error) {
	data, err := s.client.Get(ctx, redisDocumentKey).Bytes()
	if err == redis.Nil {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: redis get: %w", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return Document{}, ErrNoDocument
	}
	return doc, nil
}

// Save replaces the stored document.
func (s *RedisStore) Save(ctx context.Context, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("featureconfig: encode document: %w", err)
	}
	if err := s.client.Set(ctx, redisDocumentKey, data, 0).Err(); err != nil {
		return fmt.Errorf("featureconfig: redis set: %w", err)
	}
	return nil
}
