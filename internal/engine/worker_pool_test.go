package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Basic(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	done := make(chan int, 1)
	require.NoError(t, pool.Submit(context.Background(), func() { done <- 42 }))

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for task")
	}
}

func TestWorkerPool_Concurrency(t *testing.T) {
	const numWorkers = 4
	const numTasks = 100

	pool := NewWorkerPool(numWorkers)
	defer pool.Close()
	assert.Equal(t, numWorkers, pool.Size())

	var ran atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			if err := pool.Submit(context.Background(), func() {
				defer wg.Done()
				ran.Add(1)
			}); err != nil {
				wg.Done()
				t.Errorf("submit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(numTasks), ran.Load())
}

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(1)

	var ran atomic.Bool
	require.NoError(t, pool.Submit(context.Background(), func() { ran.Store(true) }))

	pool.Close()
	pool.Close()

	// queued work drains before Close returns
	assert.True(t, ran.Load())
	assert.ErrorIs(t, pool.Submit(context.Background(), func() {}), ErrClosed)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, 1, pool.Size())
}
