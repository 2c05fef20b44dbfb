package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPopTimeout = 5 * time.Second

type redisClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Close() error
}

// RedisQueue keeps tasks as JSON in a redis list: producers RPUSH,
// consumers BLPOP.
type RedisQueue struct {
	client      redisClient
	key         string
	workerCount int
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewRedisQueue(addr, key string, workerCount int) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisPopTimeout + 3*time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     workerCount + 5,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr, "key", key)

	return newRedisQueue(client, key, workerCount), nil
}

func newRedisQueue(client redisClient, key string, workerCount int) *RedisQueue {
	return &RedisQueue{
		client:      client,
		key:         key,
		workerCount: workerCount,
	}
}

func (q *RedisQueue) Backend() string {
	return BackendRedis
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := encodeTask(task)
	if err != nil {
		return err
	}

	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push task: %w", err)
	}
	return nil
}

func (q *RedisQueue) Start(ctx context.Context, dispatcher Dispatcher) {
	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(workerCtx, i, dispatcher)
	}
}

func (q *RedisQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()

	if err := q.client.Close(); err != nil {
		slog.Warn("Failed to close Redis client", "error", err)
	}
}

func (q *RedisQueue) worker(ctx context.Context, id int, dispatcher Dispatcher) {
	defer q.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		result, err := q.client.BLPop(ctx, redisPopTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Failed to pop task", "worker_id", id, "key", q.key, "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}

		// BLPOP replies with [key, value].
		if len(result) != 2 {
			continue
		}

		task, err := decodeTask([]byte(result[1]))
		if err != nil {
			slog.Error("Dropping malformed task", "worker_id", id, "error", err)
			continue
		}

		deliver(ctx, id, dispatcher, task)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
