package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	transcriptKeyPrefix = "chat_transcript:"
	transcriptTTL       = 7 * 24 * time.Hour
)

// TranscriptCache keeps the recent tail of each appointment thread in Redis
// so history reads do not hit Postgres on every page open. Postgres remains
// the source of truth.
type TranscriptCache struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
}

// NewTranscriptCache wraps a Redis client. Returns nil when the client is
// nil so callers can treat the cache as optional.
func NewTranscriptCache(redisClient *redis.Client, maxMessages int64) *TranscriptCache {
	if redisClient == nil {
		return nil
	}
	if maxMessages <= 0 {
		maxMessages = 100
	}
	return &TranscriptCache{
		redis:       redisClient,
		tracer:      otel.Tracer("afya.internal.chat.transcript"),
		maxMessages: maxMessages,
	}
}

// Append pushes a message onto the cached tail of the thread.
func (c *TranscriptCache) Append(ctx context.Context, appointmentID string, msg Message) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if appointmentID == "" {
		return errors.New("chat: transcript appointmentID required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: marshal transcript message: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "chat.transcript.append")
	defer span.End()

	key := transcriptKey(appointmentID)
	pipe := c.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, transcriptTTL)
	if c.maxMessages > 0 {
		pipe.LTrim(ctx, key, -c.maxMessages, -1)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: append transcript message: %w", err)
	}
	return nil
}

// List returns up to limit cached messages in chronological order.
func (c *TranscriptCache) List(ctx context.Context, appointmentID string, limit int64) ([]Message, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if appointmentID == "" {
		return nil, errors.New("chat: transcript appointmentID required")
	}

	ctx, span := c.tracer.Start(ctx, "chat.transcript.list")
	defer span.End()

	start := int64(0)
	end := int64(-1)
	if limit > 0 {
		start = -limit
	}

	key := transcriptKey(appointmentID)
	raw, err := c.redis.LRange(ctx, key, start, end).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Invalidate drops the cached tail, forcing the next read through Postgres.
func (c *TranscriptCache) Invalidate(ctx context.Context, appointmentID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, transcriptKey(appointmentID)).Err(); err != nil {
		return fmt.Errorf("chat: invalidate transcript: %w", err)
	}
	return nil
}

func transcriptKey(appointmentID string) string {
	return transcriptKeyPrefix + appointmentID
}
