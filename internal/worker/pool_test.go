package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &mockResult{id: j.id, err: err}
	}
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool_WorkerDefaults(t *testing.T) {
	assert.Equal(t, 5, NewPool(context.Background(), 5).workers)
	assert.Equal(t, 1, NewPool(context.Background(), 0).workers)
	assert.Equal(t, 1, NewPool(context.Background(), -3).workers)
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var executed int32
	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit(&mockJob{id: i, executed: &executed}))
	}

	results := pool.Wait()
	assert.Len(t, results, 10)
	assert.Equal(t, int32(10), atomic.LoadInt32(&executed))
}

// The pool used to stall once submitted jobs outgrew its buffers
func TestPool_ManyMoreJobsThanBuffer(t *testing.T) {
	pool := NewPool(context.Background(), 2)

	done := make(chan []Result)
	go func() {
		for i := 0; i < 200; i++ {
			pool.Submit(&mockJob{id: i})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		assert.Len(t, results, 200)
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked")
	}
}

func TestPool_Errors(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	for i := 0; i < 6; i++ {
		pool.Submit(&mockJob{id: i, shouldErr: i%2 == 0})
	}

	failed := 0
	for _, r := range pool.Wait() {
		if r.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 3, failed)
}

func TestPool_Cancel(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	for i := 0; i < 3; i++ {
		pool.Submit(&mockJob{id: i, duration: time.Minute})
	}

	pool.cancel()
	assert.False(t, pool.Submit(&mockJob{id: 99}))

	results := pool.Wait()
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.GetError(), context.Canceled)
	}
}

func TestPool_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(ctx, 2)
	assert.False(t, pool.Submit(&mockJob{}))
	assert.Empty(t, pool.Wait())
}

func TestPool_WaitTwice(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Submit(&mockJob{id: 1})

	first := pool.Wait()
	second := pool.Wait()
	assert.Len(t, first, 1)
	assert.Equal(t, first, second)
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.Add(&mockResult{id: 1})
	c.Add(&mockResult{id: 2})

	got := c.Results()
	require.Len(t, got, 2)

	got[0] = nil
	assert.NotNil(t, c.Results()[0], "Results returns a copy")
}
