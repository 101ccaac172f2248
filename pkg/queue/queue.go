// Package queue implements the Worker Queue (§4.7): an at-least-once FIFO
// over Redis lists carrying queued optimization request IDs from the
// Submitter to the Orchestrator, grounded on pkg/cache's Redis client setup
// conventions.
package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/config"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

// Queue is a Redis-list-backed FIFO of pending optimization request IDs.
// Dequeue moves an item from the pending list to a processing list via
// BLMOVE; the claim timestamp is tracked in a side hash so ReclaimStale can
// detect workers that died mid-job and requeue their claims.
type Queue struct {
	client            *redis.Client
	pendingKey        string
	processingKey     string
	claimsKey         string
	visibilityTimeout time.Duration
}

// New constructs a Queue from cfg, dialing Redis eagerly the same way
// pkg/cache.NewRedisCache does.
func New(cfg config.QueueConfig) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "optimization:queue"
	}
	visibility := cfg.VisibilityTimeout
	if visibility <= 0 {
		visibility = 5 * time.Minute
	}

	return &Queue{
		client:            client,
		pendingKey:        name + ":pending",
		processingKey:     name + ":processing",
		claimsKey:         name + ":claims",
		visibilityTimeout: visibility,
	}, nil
}

// Enqueue appends requestID to the pending list.
func (q *Queue) Enqueue(ctx context.Context, requestID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "Queue.Enqueue")
	defer span.End()

	if err := q.client.LPush(ctx, q.pendingKey, requestID).Err(); err != nil {
		telemetry.RecordError(ctx, err)
		return apperror.Wrap(err, apperror.CodeInternal, "failed to enqueue optimization request")
	}
	return nil
}

// Dequeue blocks up to timeout for a pending request, moving it onto the
// processing list and recording the claim time. ok is false on timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (requestID int64, ok bool, err error) {
	val, err := q.client.BLMove(ctx, q.pendingKey, q.processingKey, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, apperror.Wrap(err, apperror.CodeInternal, "failed to dequeue optimization request")
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, apperror.Wrap(err, apperror.CodeInternal, "malformed queue entry")
	}

	if err := q.client.HSet(ctx, q.claimsKey, val, time.Now().Unix()).Err(); err != nil {
		return 0, false, apperror.Wrap(err, apperror.CodeInternal, "failed to record claim timestamp")
	}

	return id, true, nil
}

// Ack removes requestID from the processing list once the Orchestrator has
// written a terminal status for it, preventing ReclaimStale from requeuing
// already-finished work.
func (q *Queue) Ack(ctx context.Context, requestID int64) error {
	val := strconv.FormatInt(requestID, 10)
	if err := q.client.LRem(ctx, q.processingKey, 1, val).Err(); err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "failed to ack optimization request")
	}
	if err := q.client.HDel(ctx, q.claimsKey, val).Err(); err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "failed to clear claim record")
	}
	return nil
}

// ReclaimStale moves claims older than the configured visibility timeout
// back onto the pending list, for requests whose worker crashed or hung
// before acking. Returns the number of requests reclaimed.
func (q *Queue) ReclaimStale(ctx context.Context) (int, error) {
	claims, err := q.client.HGetAll(ctx, q.claimsKey).Result()
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeInternal, "failed to list claims")
	}

	cutoff := time.Now().Add(-q.visibilityTimeout).Unix()
	reclaimed := 0
	for member, claimedAtStr := range claims {
		claimedAt, err := strconv.ParseInt(claimedAtStr, 10, 64)
		if err != nil || claimedAt > cutoff {
			continue
		}

		removed, err := q.client.LRem(ctx, q.processingKey, 1, member).Result()
		if err != nil {
			return reclaimed, apperror.Wrap(err, apperror.CodeInternal, "failed to reclaim stale request")
		}
		if removed == 0 {
			// already acked and removed by its worker; drop the stale claim record
			q.client.HDel(ctx, q.claimsKey, member)
			continue
		}

		if err := q.client.LPush(ctx, q.pendingKey, member).Err(); err != nil {
			return reclaimed, apperror.Wrap(err, apperror.CodeInternal, "failed to requeue stale request")
		}
		q.client.HDel(ctx, q.claimsKey, member)
		reclaimed++
	}

	return reclaimed, nil
}

// Close releases the underlying Redis connection pool.
func (q *Queue) Close() error {
	return q.client.Close()
}
