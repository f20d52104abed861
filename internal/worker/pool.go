package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/baharkarakas/point-wallet/internal/metrics"
)

var ErrStopped = errors.New("worker pool stopped")

type task func()

type Pool struct {
	wg   sync.WaitGroup
	jobs chan task

	mu      sync.RWMutex
	stopped bool
}

// NewPool starts n workers reading from a queue of the given capacity.
func NewPool(n, queue int) *Pool {
	if n < 1 {
		n = 1
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{jobs: make(chan task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				job()
			}
		}()
	}
	return p
}

// Submit queues f, blocking while the queue is full. It fails once ctx is done or the
// pool has been stopped.
func (p *Pool) Submit(ctx context.Context, f task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	// counted before the send so a worker's Dec never runs ahead of it
	metrics.WorkerQueueDepth.Inc()
	select {
	case p.jobs <- f:
		return nil
	case <-ctx.Done():
		metrics.WorkerQueueDepth.Dec()
		return ctx.Err()
	}
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
