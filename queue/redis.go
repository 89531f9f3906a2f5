package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ArpaAP/soulbin/config"
	"github.com/ArpaAP/soulbin/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultPollTimeout = 2 * time.Second

type RedisQueueOptions struct {
	Key     string
	MaxLen  int64
	Workers int
	// BRPOP 대기 시간. 종료 신호 확인 주기이기도 하다
	PollTimeout time.Duration
}

// RedisQueue 는 Redis 리스트(LPUSH/BRPOP) 기반 큐
type RedisQueue struct {
	client  *redis.Client
	opts    RedisQueueOptions
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewRedisQueue(client *redis.Client, opts RedisQueueOptions, m *metrics.Metrics) *RedisQueue {
	if opts.Key == "" {
		opts.Key = "soulbin:queue:tasks"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RedisQueue{
		client:  client,
		opts:    opts,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue 는 리스트 길이가 MaxLen 에 도달하면 거절한다.
// 길이 확인과 LPUSH 가 원자적이지 않아 상한은 근사치다
func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}

	if q.opts.MaxLen > 0 {
		n, err := q.client.LLen(ctx, q.opts.Key).Result()
		if err != nil {
			return errors.Wrap(err, "redis llen")
		}
		if n >= q.opts.MaxLen {
			q.metrics.IncQueue(task.Kind, "rejected")
			return ErrQueueFull
		}
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "encode task")
	}
	if err := q.client.LPush(ctx, q.opts.Key, payload).Err(); err != nil {
		return errors.Wrap(err, "redis lpush")
	}

	q.metrics.IncQueue(task.Kind, "enqueued")
	return nil
}

func (q *RedisQueue) Start(handler Handler) {
	group, ctx := errgroup.WithContext(q.ctx)
	q.group = group

	// 처리 중인 작업은 종료 신호와 무관하게 끝까지 실행한다
	taskCtx := context.WithoutCancel(ctx)

	for i := 0; i < q.opts.Workers; i++ {
		group.Go(func() error {
			for {
				// BRPOP 은 취소 후에도 PollTimeout 까지 블록될 수 있다.
				// 이미 꺼낸 작업은 Redis 에 남지 않으므로 종료 중이어도 처리한다
				if task, ok := q.pop(ctx); ok {
					_ = runTask(taskCtx, handler, task, q.metrics)
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		})
	}
}

func (q *RedisQueue) pop(ctx context.Context) (Task, bool) {
	res, err := q.client.BRPop(ctx, q.opts.PollTimeout, q.opts.Key).Result()
	if err == redis.Nil {
		return Task{}, false
	}
	if err != nil {
		if ctx.Err() == nil {
			config.Logger.Errorw("Redis 큐 읽기 실패", "error", err, "key", q.opts.Key)
			// Redis 장애 시 바쁜 루프를 피한다
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		return Task{}, false
	}

	// BRPOP 결과는 [key, value]
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		config.Logger.Errorw("작업 디코딩 실패", "error", err, "payload", res[1])
		return Task{}, false
	}
	return task, true
}

// Close 는 폴링을 멈추고 처리 중인 작업을 기다린다. Redis 에 남은 작업은 다음 프로세스가 가져간다
func (q *RedisQueue) Close() error {
	q.cancel()
	if q.group == nil {
		return nil
	}
	return q.group.Wait()
}
