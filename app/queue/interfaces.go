package queue

import (
	"context"
	"errors"
)

var ErrUnknownEndpoint = errors.New("unknown task endpoint")

// Dispatcher runs a delivered task. The returned error is informational:
// transports acknowledge every delivered task regardless.
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) error
}

type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Start(ctx context.Context, dispatcher Dispatcher)
	Stop()
	Backend() string
}

var (
	_ Queue = (*MemoryQueue)(nil)
	_ Queue = (*RedisQueue)(nil)
	_ Queue = (*SQSQueue)(nil)
)
