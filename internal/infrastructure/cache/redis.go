package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/echoscribe-team/echoscribe/pkg/config"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisMirror publishes live dictation transcripts to Redis so display
// readers can follow a session without touching the session service.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMirror creates a mirror with the given entry TTL.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

func mirrorKey(sessionID string) string {
	return "dictation:live:" + sessionID
}

// Set writes the current transcript for a session.
func (m *RedisMirror) Set(ctx context.Context, sessionID string, text string) error {
	return m.client.Set(ctx, mirrorKey(sessionID), text, m.ttl).Err()
}

// Get reads the current transcript for a session. Missing keys return "".
func (m *RedisMirror) Get(ctx context.Context, sessionID string) (string, error) {
	text, err := m.client.Get(ctx, mirrorKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return text, err
}

// Delete clears a session's transcript.
func (m *RedisMirror) Delete(ctx context.Context, sessionID string) error {
	return m.client.Del(ctx, mirrorKey(sessionID)).Err()
}
