// Package parallel provides the bounded worker pool the contingency engine
// uses when scenarios are evaluated concurrently.
package parallel

import (
	"fmt"
	"sync"
)

// WorkerPool manages a fixed set of worker goroutines draining a task queue.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // protects taskQueue from concurrent close during send
	closed    bool
}

// NewWorkerPool creates a pool with the given number of workers. Counts
// below one fall back to a single worker.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		// A panicking scenario must not take the worker down with it;
		// the remaining scenarios still need evaluating.
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Printf("worker panic recovered: %v\n", r)
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the pool. Returns false if the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
