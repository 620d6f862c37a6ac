package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "terminal:v1:"

// RedisStore keeps terminal sessions in Redis as JSON. Keys carry no TTL:
// a session lasts until the terminal signs out.
type RedisStore struct {
	cache *redis.Client
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(cache *redis.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

func sessionKey(terminalID string) string {
	return keyPrefix + terminalID + ":staff"
}

// Save overwrites the terminal's current session.
func (s *RedisStore) Save(ctx context.Context, session StaffSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode staff session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(session.TerminalID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store staff session: %w", err)
	}
	return nil
}

// Current loads the terminal's session.
func (s *RedisStore) Current(ctx context.Context, terminalID string) (StaffSession, error) {
	raw, err := s.cache.Get(ctx, sessionKey(terminalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StaffSession{}, ErrNoSession
		}
		return StaffSession{}, fmt.Errorf("load staff session: %w", err)
	}
	var session StaffSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return StaffSession{}, fmt.Errorf("decode staff session: %w", err)
	}
	return session, nil
}

// Clear signs the terminal out. Clearing an empty terminal is not an error.
func (s *RedisStore) Clear(ctx context.Context, terminalID string) error {
	if err := s.cache.Del(ctx, sessionKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("clear staff session: %w", err)
	}
	return nil
}
