package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisTaskField   = "task"
	redisKindField   = "kind"
	redisReadCount   = 16
	redisReadBlock   = 5 * time.Second
	deadLetterSuffix = ":dead"
)

// RedisQueue carries tasks on a Redis Stream consumed through a consumer group.
type RedisQueue struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *zap.Logger
}

// NewRedisQueue builds a queue on the given stream.
func NewRedisQueue(client *redis.Client, stream, group, consumer string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger,
	}
}

// EnsureGroup creates the stream and consumer group when missing.
func (q *RedisQueue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Publish appends the task to the stream.
func (q *RedisQueue) Publish(ctx context.Context, task Task) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			redisKindField: string(task.Kind),
			redisTaskField: string(body),
		},
	}).Err()
}

// Consume reads new entries for this consumer until ctx is done.
func (q *RedisQueue) Consume(ctx context.Context, handler TaskHandler) error {
	if err := q.EnsureGroup(ctx); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := q.poll(ctx, handler, redisReadBlock); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.Warn("redis queue read failed", zap.String("stream", q.stream), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// poll reads one batch and processes it. A negative block returns immediately when empty.
func (q *RedisQueue) poll(ctx context.Context, handler TaskHandler, block time.Duration) (int, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    redisReadCount,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	processed := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			q.process(ctx, msg, handler)
			processed++
		}
	}
	return processed, nil
}

func (q *RedisQueue) process(ctx context.Context, msg redis.XMessage, handler TaskHandler) {
	raw, _ := msg.Values[redisTaskField].(string)
	task, err := decodeTask([]byte(raw))
	if err != nil {
		q.logger.Error("dropping malformed task", zap.String("message_id", msg.ID), zap.Error(err))
		q.deadLetter(ctx, msg, raw, err)
	} else if err := handler(ctx, task); err != nil {
		q.deadLetter(ctx, msg, raw, err)
	}

	if err := q.client.XAck(ctx, q.stream, q.group, msg.ID).Err(); err != nil {
		q.logger.Warn("redis queue ack failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (q *RedisQueue) deadLetter(ctx context.Context, msg redis.XMessage, raw string, cause error) {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream + deadLetterSuffix,
		Values: map[string]interface{}{
			redisTaskField: raw,
			"source_id":    msg.ID,
			"error":        cause.Error(),
		},
	}).Err()
	if err != nil {
		q.logger.Error("redis dead-letter write failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (q *RedisQueue) Close() error {
	return nil
}
