package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryQueue is an in-process transport: a bounded buffer drained by a
// fixed worker pool. Tasks are lost on restart; the sweeps re-create them.
type MemoryQueue struct {
	taskQueue   chan Task
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewMemoryQueue(capacity, workerCount int) *MemoryQueue {
	ctx, cancel := context.WithCancel(context.Background())

	return &MemoryQueue{
		taskQueue:   make(chan Task, capacity),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (q *MemoryQueue) Backend() string {
	return BackendMemory
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case <-q.ctx.Done():
		return q.ctx.Err()
	default:
	}

	select {
	case q.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (q *MemoryQueue) Start(ctx context.Context, dispatcher Dispatcher) {
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i, dispatcher)
	}
}

func (q *MemoryQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// Len reports the number of buffered tasks.
func (q *MemoryQueue) Len() int {
	return len(q.taskQueue)
}

func (q *MemoryQueue) worker(ctx context.Context, id int, dispatcher Dispatcher) {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.taskQueue:
			deliver(q.ctx, id, dispatcher, task)
		case <-q.ctx.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}
