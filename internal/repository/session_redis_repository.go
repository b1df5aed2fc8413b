package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/mileage-skill/internal/domain"
)

const sessionKeyPrefix = "skill:session:"

type redisSessionRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSessionRepository stores sessions as JSON values. A zero ttl
// stores them without expiry.
func NewRedisSessionRepository(client redis.Cmdable, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{client: client, ttl: ttl}
}

func (r *redisSessionRepository) Put(ctx context.Context, callerID string, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKey(callerID), payload, r.ttl).Err()
}

func (r *redisSessionRepository) Get(ctx context.Context, callerID string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(callerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func sessionKey(callerID string) string {
	return sessionKeyPrefix + callerID
}
