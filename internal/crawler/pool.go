package crawler

import (
	"context"
	"sync"

	"github.com/bool64/ctxd"
	"golang.org/x/sync/errgroup"
)

// unit is a schedulable piece of work. A unit runs once and is discarded.
type unit interface {
	run()
}

// PoolStats is a snapshot of a worker pool.
type PoolStats struct {
	Workers int // Number of workers of the pool.
	Queued  int // Number of units waiting for a worker.
	Running int // Number of units being run by the workers.
}

// workerPool runs units with a fixed number of workers.
//
// Submitting never blocks, the queue is unbounded. Units running in one pool submit to the other one, with bounded queues the two pools could
// wait for each other forever.
type workerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []unit
	running int
	closed  bool

	size    int
	workers errgroup.Group
}

// submit queues a unit for running. It returns false if the pool is closed.
func (p *workerPool) submit(u unit) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.queue = append(p.queue, u)
	p.cond.Signal()

	return true
}

// close stops the pool immediately. The queued units are discarded and the running ones are not waited for.
func (p *workerPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.queue = nil

	p.cond.Broadcast()
}

// wait waits for all the workers to stop. It returns only after close is called.
func (p *workerPool) wait() {
	_ = p.workers.Wait() // nolint: errcheck // Workers never return an error.
}

func (p *workerPool) stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStats{
		Workers: p.size,
		Queued:  len(p.queue),
		Running: p.running,
	}
}

// next blocks until there is a unit to run. It returns false if the pool is closed.
func (p *workerPool) next() (unit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}

	if p.closed {
		return nil, false
	}

	u := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.running++

	return u, true
}

func (p *workerPool) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running--
}

func (p *workerPool) work(ctx context.Context, log ctxd.Logger) {
	log.Debug(ctx, "started crawler worker")

	defer log.Debug(ctx, "stopped crawler worker")

	for {
		u, ok := p.next()
		if !ok {
			return
		}

		u.run()
		p.finish()
	}
}

// newWorkerPool creates a new pool and starts its workers.
func newWorkerPool(ctx context.Context, name string, size int, log ctxd.Logger) *workerPool {
	p := &workerPool{size: size}
	p.cond = sync.NewCond(&p.mu)

	ctx = ctxd.AddFields(ctx, "crawler.pool", name)

	for i := 0; i < size; i++ {
		ctx := ctxd.AddFields(ctx, "crawler.pool.worker_id", i)

		p.workers.Go(func() error {
			p.work(ctx, log)

			return nil
		})
	}

	return p
}
