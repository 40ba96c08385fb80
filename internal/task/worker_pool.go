package task

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool manages a pool of worker goroutines that process jobs
// from a task queue. Workers exit once the queue is closed and drained.
type WorkerPool struct {
	// taskQueue provides read access to the jobs to be processed
	taskQueue TaskQueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 4,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		logger:      logger,
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", slog.Int("worker_count", p.workerCount))
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", slog.Int("worker_id", id))
	for job := range p.taskQueue.GetChannel() {
		p.execute(job)
	}
	p.logger.Debug("stopping worker", slog.Int("worker_id", id))
}

// execute runs one job. A panicking task is reported as a failure.
func (p *WorkerPool) execute(job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.fail(job.Task, fmt.Errorf("task panicked: %v", r))
		}
		if job.done != nil {
			job.done()
		}
	}()

	if err := job.Task.Execute(job.Ctx); err != nil {
		p.fail(job.Task, err)
		return
	}

	p.logger.Debug("task completed",
		slog.String("task_id", job.Task.ID().String()),
		slog.String("task_type", job.Task.Type()),
		slog.Duration("duration", time.Since(start)))
}

func (p *WorkerPool) fail(task Task, err error) {
	if p.errorHandler != nil {
		p.errorHandler(task, err)
		return
	}
	p.logger.Error("task execution failed",
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.String("error", err.Error()))
}
