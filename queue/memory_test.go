package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArpaAP/soulbin/metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_ProcessesAndDrainsOnClose(t *testing.T) {
	q := NewMemoryQueue(16, 3, metrics.New())

	var mu sync.Mutex
	seen := map[string]bool{}
	q.Start(func(_ context.Context, task Task) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		seen[task.Ref] = true
		mu.Unlock()
		return nil
	})

	refs := []string{"a", "b", "c", "d", "e", "f"}
	for _, ref := range refs {
		require.NoError(t, q.Enqueue(context.Background(), NewTask("test", ref)))
	}

	require.NoError(t, q.Close())
	assert.Len(t, seen, len(refs))
	assert.Zero(t, q.Len())
}

func TestMemoryQueue_FullAndClosed(t *testing.T) {
	q := NewMemoryQueue(1, 1, nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Start(func(context.Context, Task) error {
		started <- struct{}{}
		<-release
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), NewTask("test", "1")))
	<-started
	// 워커가 하나를 잡고 있으므로 버퍼 한 칸만 남는다
	require.NoError(t, q.Enqueue(context.Background(), NewTask("test", "2")))
	err := q.Enqueue(context.Background(), NewTask("test", "3"))
	assert.True(t, errors.Is(err, ErrQueueFull))

	close(release)
	require.NoError(t, q.Close())
	assert.True(t, errors.Is(q.Enqueue(context.Background(), NewTask("test", "4")), ErrClosed))
	assert.NoError(t, q.Close())
}

func TestMemoryQueue_HandlerPanicDoesNotKillWorker(t *testing.T) {
	q := NewMemoryQueue(4, 1, nil)

	var handled atomic.Int32
	q.Start(func(_ context.Context, task Task) error {
		if task.Ref == "panic" {
			panic("boom")
		}
		handled.Add(1)
		return errors.New("ignored")
	})

	require.NoError(t, q.Enqueue(context.Background(), NewTask("test", "panic")))
	require.NoError(t, q.Enqueue(context.Background(), NewTask("test", "ok")))
	require.NoError(t, q.Close())
	assert.Equal(t, int32(1), handled.Load())
}

func TestMux(t *testing.T) {
	var got Task
	mux := Mux{"analyze": func(_ context.Context, task Task) error {
		got = task
		return nil
	}}

	task := NewTask("analyze", "diary-1")
	require.NoError(t, mux.Handle(context.Background(), task))
	assert.Equal(t, task, got)
	assert.NotEmpty(t, task.ID)

	assert.Error(t, mux.Handle(context.Background(), NewTask("unknown", "x")))
}
