// Package parallel provides a work-stealing worker pool for running
// independent work items, such as emulated compute workgroups, on all CPUs.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines that executes index ranges in parallel.
//
// A dispatch of n items is cut into chunks and spread round-robin over
// per-worker queues. Workers that run out of local chunks steal from other
// workers, which balances load when some items are slower than others.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker chunk queues.
	queues []chan chunk

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// chunk is a half-open index range [lo, hi) of a single dispatch.
type chunk struct {
	lo, hi int
	fn     func(i int)
	wg     *sync.WaitGroup
}

func (c chunk) run() {
	defer c.wg.Done()
	for i := c.lo; i < c.hi; i++ {
		c.fn(i)
	}
}

// chunksPerWorker controls dispatch granularity. More chunks give stealing
// something to do; fewer keep per-chunk overhead low.
const chunksPerWorker = 4

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan chunk, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan chunk, chunksPerWorker*2)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case c := <-own:
			c.run()
			continue
		default:
		}

		if c, ok := p.steal(id); ok {
			c.run()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case c := <-own:
			c.run()
		}
	}
}

// drain runs the chunks left in a queue at shutdown.
func (p *WorkerPool) drain(queue chan chunk) {
	for {
		select {
		case c := <-queue:
			c.run()
		default:
			return
		}
	}
}

// steal attempts to take a chunk from another worker's queue.
func (p *WorkerPool) steal(myID int) (chunk, bool) {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case c := <-p.queues[i]:
			return c, true
		default:
		}
	}
	return chunk{}, false
}

// Dispatch calls fn(i) for every i in [0, n) and waits for all calls to
// return. Calls run concurrently and in no particular order.
// If the pool is closed, fn runs on the calling goroutine.
func (p *WorkerPool) Dispatch(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if !p.running.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	size := (n + p.workers*chunksPerWorker - 1) / (p.workers * chunksPerWorker)
	var wg sync.WaitGroup
	q := 0
	for lo := 0; lo < n; lo += size {
		c := chunk{lo: lo, hi: min(lo+size, n), fn: fn, wg: &wg}
		wg.Add(1)
		select {
		case p.queues[q] <- c:
		case <-p.done:
			c.run()
		}
		q = (q + 1) % p.workers
	}
	wg.Wait()
}

// Close stops the workers after the chunks already queued have run.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
