package sendworker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SameAccountSequentialProcessing(t *testing.T) {
	pool := NewPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var results []int
	var mu sync.Mutex

	for i := 1; i <= 5; i++ {
		val := i
		pool.Dispatch(Job{
			AccountID: "acc-1",
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3, 4, 5}, results, "jobs for one account must run in order")
}

func TestPool_DistinctAccountsRunInParallel(t *testing.T) {
	pool := NewPool(8, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var inFlight, peak int32
	var wg sync.WaitGroup

	// Account ids chosen freely; with 8 workers most hash to distinct ones.
	accounts := []string{"a", "b", "c", "d", "e", "f"}
	for _, acc := range accounts {
		wg.Add(1)
		pool.Dispatch(Job{
			AccountID: acc,
			Handler: func(ctx context.Context) error {
				defer wg.Done()
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			},
		})
	}
	wg.Wait()

	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "distinct accounts should overlap")
}

func TestPool_StatsCountProcessedAndErrors(t *testing.T) {
	pool := NewPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	pool.Dispatch(Job{AccountID: "a", Handler: func(ctx context.Context) error {
		defer wg.Done()
		return nil
	}})
	pool.Dispatch(Job{AccountID: "b", Handler: func(ctx context.Context) error {
		defer wg.Done()
		return assert.AnError
	}})
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.TotalDispatched)
	assert.Equal(t, int64(2), stats.TotalProcessed)
	assert.Equal(t, int64(1), stats.TotalErrors)
}

func TestPool_PanicInHandlerDoesNotKillWorker(t *testing.T) {
	pool := NewPool(1, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	pool.Dispatch(Job{AccountID: "a", Handler: func(ctx context.Context) error {
		panic("boom")
	}})

	done := make(chan struct{})
	pool.Dispatch(Job{AccountID: "a", Handler: func(ctx context.Context) error {
		close(done)
		return nil
	}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestPool_DispatchAfterStopReturnsFalse(t *testing.T) {
	pool := NewPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	pool.Stop()

	ok := pool.Dispatch(Job{AccountID: "a", Handler: func(ctx context.Context) error { return nil }})
	assert.False(t, ok)
}
