package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumabot/wabridge/internal/agent"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultTTL = 24 * time.Hour

// RedisStore persists session transcripts in Redis with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithTTL sets how long an idle transcript is retained.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTracer sets the tracer used for store spans.
func WithTracer(tracer trace.Tracer) RedisOption {
	return func(s *RedisStore) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	s := &RedisStore{
		redis:  client,
		tracer: otel.Tracer("wabridge.internal.session"),
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, sessionKey string, turns []agent.Turn) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal transcript: %w", err)
	}
	if err := s.redis.Set(ctx, storeKey(sessionKey), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionKey string) ([]agent.Turn, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, storeKey(sessionKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // first contact for this sender
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load transcript: %w", err)
	}

	var turns []agent.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode transcript: %w", err)
	}
	return turns, nil
}

func storeKey(sessionKey string) string {
	return fmt.Sprintf("session:%s", sessionKey)
}
