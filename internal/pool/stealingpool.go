package pool

import (
	"github.com/alitto/pond"
)

// StealingPool delegates to pond's work-stealing scheduler: Spawn enqueues
// globally and any idle worker may pick the job up, rather than each job
// being pinned to the worker that happened to receive it off the shared
// channel the way QueuePool works. Pond already recovers panicking tasks
// internally, so no extra wrapper is needed here.
type StealingPool struct {
	inner *pond.WorkerPool
}

var _ ThreadPool = (*StealingPool)(nil)

// NewStealingPool starts a pool of n workers (all started up front via
// MinWorkers) with a zero-capacity task queue: Spawn blocks until a worker
// takes the job.
func NewStealingPool(n int) *StealingPool {
	return &StealingPool{inner: pond.New(n, 0, pond.MinWorkers(n))}
}

// Spawn enqueues job onto the pool.
func (p *StealingPool) Spawn(job Job) {
	p.inner.Submit(job)
}

// Shutdown stops accepting new jobs and waits for in-flight ones to
// finish.
func (p *StealingPool) Shutdown() {
	p.inner.StopAndWait()
}
