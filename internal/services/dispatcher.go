package services

import (
	"errors"
	"log"
	"sync"
)

// ErrQueueFull is returned when the dispatcher cannot accept more work
var ErrQueueFull = errors.New("report queue is full")

// Dispatcher runs report jobs on a bounded worker pool. Each job owns
// exactly one task for its entire life; a panicking job is contained and
// logged so it never takes down the process or another worker.
type Dispatcher struct {
	jobs    chan func()
	workers int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates a dispatcher with the given pool size and queue capacity
func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		jobs:    make(chan func(), queueSize),
		workers: workers,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run()
		}
		log.Printf("Report dispatcher started with %d workers", d.workers)
	})
}

// Stop drains queued jobs and waits for in-flight workers to finish
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
		log.Printf("Report dispatcher stopped")
	})
}

// Dispatch queues a job without blocking. Returns ErrQueueFull when the
// queue is at capacity or the pool has been stopped, so the caller can
// fail the task observably instead of losing it.
func (d *Dispatcher) Dispatch(job func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrQueueFull
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.invoke(job)
	}
}

func (d *Dispatcher) invoke(job func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARNING: report worker panic recovered: %v", r)
		}
	}()
	job()
}
