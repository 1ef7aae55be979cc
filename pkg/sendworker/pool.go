package sendworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is one delivery attempt bound to an account.
type Job struct {
	AccountID string
	Handler   func(ctx context.Context) error
}

// PoolStats carries live pool counters.
type PoolStats struct {
	NumWorkers      int   `json:"num_workers"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalErrors     int64 `json:"total_errors"`
}

// Pool runs delivery jobs on a fixed set of workers. Jobs hash to a worker
// by account id, so two sends for the same account never run concurrently
// while distinct accounts proceed in parallel. The external session behind
// an account tolerates only one in-flight operation, hence the keying.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopCh     chan struct{}

	totalDispatched int64
	totalProcessed  int64
	totalErrors     int64
}

type worker struct {
	id   int
	jobs chan Job
	pool *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		stopCh:     make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		w := &worker{
			id:   i,
			jobs: make(chan Job, p.queueSize),
			pool: p,
		}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(ctx)
	}
	logrus.Debugf("[SENDWORKER] pool started with %d workers", p.numWorkers)
}

// Dispatch queues the job on its account's worker. It blocks when that
// worker's queue is full; backpressure preserves per-account order, which a
// drop-on-full policy would not.
func (p *Pool) Dispatch(job Job) bool {
	select {
	case <-p.stopCh:
		return false
	default:
	}
	w := p.workers[p.workerFor(job.AccountID)]
	select {
	case w.jobs <- job:
		atomic.AddInt64(&p.totalDispatched, 1)
		return true
	case <-p.stopCh:
		return false
	}
}

func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		NumWorkers:      p.numWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (p *Pool) workerFor(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32()) % p.numWorkers
}

func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pool.stopCh:
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *worker) process(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[SENDWORKER] worker %d recovered from panic: %v", w.id, r)
		}
	}()
	if err := job.Handler(ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
	}
	atomic.AddInt64(&w.pool.totalProcessed, 1)
}
