// Package queue 는 요청 처리 이후에 실행할 작업을 맡는다.
//
// MemoryQueue 는 프로세스 안의 크기 제한 채널에, RedisQueue 는 Redis 리스트에
// 작업을 쌓는다. RedisQueue 를 쓰면 여러 서버 프로세스가 작업을 나눠 처리한다.
// 둘 다 용량이 차면 ErrQueueFull 로 거절한다.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrQueueFull = errors.New("queue is full")
	ErrClosed    = errors.New("queue is closed")
)

// Task 는 큐에 쌓이는 작업 한 건. Ref 는 처리 대상 엔티티의 ID
type Task struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Ref        string    `json:"ref"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func NewTask(kind, ref string) Task {
	return Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Ref:        ref,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Handler 작업 한 건을 처리한다. 반환된 에러는 기록만 하고 재시도하지 않는다
type Handler func(ctx context.Context, task Task) error

type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Start 워커를 띄운다. 한 번만 호출한다
	Start(handler Handler)
	// Close 새 작업을 막고 처리 중인 작업을 기다린다
	Close() error
}

// Mux 작업 종류별로 핸들러를 고른다
type Mux map[string]Handler

func (m Mux) Handle(ctx context.Context, task Task) error {
	h, ok := m[task.Kind]
	if !ok {
		return fmt.Errorf("no handler registered for task kind %q", task.Kind)
	}
	return h(ctx, task)
}

// runTask 는 핸들러 panic 을 에러로 바꾼다
func runTask(ctx context.Context, handler Handler, task Task, m *metrics.Metrics) (err error) {
	m.TaskStarted()
	defer m.TaskFinished()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panic: %v", r)
		}
		if err != nil {
			m.IncQueue(task.Kind, "error")
			config.Logger.Errorw("작업 처리 실패",
				"error", err,
				"taskID", task.ID,
				"kind", task.Kind,
				"ref", task.Ref,
			)
			return
		}
		m.IncQueue(task.Kind, "done")
	}()

	return handler(ctx, task)
}
