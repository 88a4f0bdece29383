package utils

import (
	"sync"

	"github.com/rs/zerolog"
)

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool runs submitted tasks on a fixed set of workers. Submission never
// blocks: when the queue is full the task is dropped.
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	waitGroup sync.WaitGroup
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool with the given number of workers and queue size.
func NewWorkerPool(workers, queueSize int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		logger:   logger,
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker processes jobs from the jobQueue.
func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().Interface("panic", r).Msg("Worker task panicked")
		}
	}()
	job.Task()
}

// Submit queues task. It reports false if the pool is shut down or the queue is full.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	select {
	case wp.jobQueue <- Job{Task: task}:
		return true
	default:
		wp.logger.Warn().Msg("Worker queue full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.waitGroup.Wait()
}
