package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "oauth-token:v1:"

// RedisStore shares access tokens between replicas through Redis. Keys are
// scoped to one service account so deployments with different credentials can
// share a Redis instance.
type RedisStore struct {
	client   *redis.Client
	identity string
}

// NewRedisStore wraps an existing client. identity is the service-account email
// the stored tokens belong to.
func NewRedisStore(client *redis.Client, identity string) *RedisStore {
	return &RedisStore{client: client, identity: identity}
}

func (s *RedisStore) key(scope string) string {
	return tokenKeyPrefix + s.identity + ":" + scope
}

// Load returns the stored token for scope, if any.
func (s *RedisStore) Load(ctx context.Context, scope string) (Token, bool, error) {
	raw, err := s.client.Get(ctx, s.key(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, fmt.Errorf("redis get token: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return Token{}, false, fmt.Errorf("decode stored token: %w", err)
	}
	return tok, true, nil
}

// Save stores the token until ttl elapses.
func (s *RedisStore) Save(ctx context.Context, scope string, token Token, ttl time.Duration) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(scope), payload, ttl).Err()
}

// Delete removes the stored token.
func (s *RedisStore) Delete(ctx context.Context, scope string) error {
	return s.client.Del(ctx, s.key(scope)).Err()
}
