package queue

import (
	"context"
	"sync"

	"github.com/ArpaAP/soulbin/metrics"
	"golang.org/x/sync/errgroup"
)

// MemoryQueue 는 프로세스 내부 버퍼 채널 기반 큐
type MemoryQueue struct {
	tasks   chan Task
	workers int
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	group  errgroup.Group
}

func NewMemoryQueue(size, workers int, m *metrics.Metrics) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &MemoryQueue{
		tasks:   make(chan Task, size),
		workers: workers,
		metrics: m,
	}
}

// Enqueue 는 블록되지 않는다. 버퍼가 가득 차면 ErrQueueFull
func (q *MemoryQueue) Enqueue(_ context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.tasks <- task:
		q.metrics.IncQueue(task.Kind, "enqueued")
		return nil
	default:
		q.metrics.IncQueue(task.Kind, "rejected")
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Start(handler Handler) {
	// 종료 중에도 남은 작업은 끝까지 처리한다
	ctx := context.Background()
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			for task := range q.tasks {
				_ = runTask(ctx, handler, task, q.metrics)
			}
			return nil
		})
	}
}

// Close 버퍼에 남은 작업을 모두 처리한 뒤 반환한다
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	return q.group.Wait()
}

// Len 대기 중인 작업 수
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}
