// ABOUTME: Fixed-size worker pool for fanning out per-lane layout work
// ABOUTME: Submit-and-wait pattern; the caller joins with Wait before reading results

package pool

import (
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines for parallel task execution
type WorkerPool struct {
	workers  int
	taskChan chan func()
	workerWg sync.WaitGroup // tracks worker goroutines lifetime
	taskWg   sync.WaitGroup // tracks submitted tasks completion
}

// NewWorkerPool creates a worker pool sized to available CPUs
// The bufferSize determines the task channel capacity
func NewWorkerPool(bufferSize int) *WorkerPool {
	return NewSized(runtime.NumCPU(), bufferSize)
}

// NewSized creates a worker pool with an explicit worker count (at least one)
func NewSized(workers, bufferSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}

	p := &WorkerPool{
		workers:  workers,
		taskChan: make(chan func(), bufferSize),
	}

	for range workers {
		p.workerWg.Add(1)

		go func() {
			defer p.workerWg.Done()

			for task := range p.taskChan {
				task()
				p.taskWg.Done()
			}
		}()
	}

	return p
}

// Workers returns the number of worker goroutines
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Submit adds a task to the pool
// Blocks if the task channel is full
func (p *WorkerPool) Submit(task func()) {
	p.taskWg.Add(1)
	p.taskChan <- task
}

// Wait blocks until all submitted tasks have completed
func (p *WorkerPool) Wait() {
	p.taskWg.Wait()
}

// Close shuts down the worker pool and waits for all workers to exit
func (p *WorkerPool) Close() {
	close(p.taskChan)
	p.workerWg.Wait()
}
