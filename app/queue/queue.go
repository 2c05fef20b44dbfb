package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-relay/app/cfg"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQS    = "sqs"
)

const taskTimeout = 5 * time.Minute

// New builds the transport selected by the configuration.
func New(c *cfg.Cfg) (Queue, error) {
	switch c.QueueBackend {
	case BackendMemory, "":
		return NewMemoryQueue(c.QueueCapacity, c.WorkerCount), nil
	case BackendRedis:
		return NewRedisQueue(c.RedisAddr, c.RedisKey, c.WorkerCount)
	case BackendSQS:
		return NewSQSQueue(c.SQSRegion, c.SQSEndpoint, c.SQSQueueURL, c.WorkerCount)
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", c.QueueBackend)
	}
}

// deliver hands a task to the dispatcher with a bounded context. Failures are
// logged and the task is considered consumed.
func deliver(ctx context.Context, workerID int, dispatcher Dispatcher, task Task) {
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	if err := dispatcher.Dispatch(taskCtx, task); err != nil {
		slog.Debug("Task dispatch returned error", "worker_id", workerID, "endpoint", task.Endpoint, "id", task.ID, "error", err)
	}
}
