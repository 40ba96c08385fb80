package task

import (
	"context"
	"log/slog"
	"sync"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 4,
		QueueSize:   256,
	}
}

// TaskRunner dispatches fire-and-forget tasks. Submit never blocks and never
// fails: tasks that do not fit in the queue run on their own goroutine.
type TaskRunner struct {
	queue   *TaskQueue
	pool    *WorkerPool
	pending sync.WaitGroup
	logger  *slog.Logger
}

// NewTaskRunner creates a new TaskRunner. Call Start before submitting work
// that must be picked up by the pool.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	return &TaskRunner{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
}

// SetErrorHandler replaces the default handler, which logs the failure.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Start launches the worker pool.
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Submit schedules task for execution. The task runs under a context that
// keeps ctx's values but not its cancellation, so it outlives the request
// that submitted it.
func (r *TaskRunner) Submit(ctx context.Context, task Task) {
	job := Job{
		Ctx:  context.WithoutCancel(ctx),
		Task: task,
		done: r.pending.Done,
	}
	r.pending.Add(1)

	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Debug("running task outside the pool",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.String("reason", err.Error()))
		go r.pool.execute(job)
	}
}

// Wait blocks until every submitted task has finished.
func (r *TaskRunner) Wait() {
	r.pending.Wait()
}

// Stop closes the queue, lets the workers drain it and waits for every
// outstanding task. Tasks submitted after Stop still run on their own goroutine.
func (r *TaskRunner) Stop() {
	r.queue.Close()
	r.pool.Wait()
	r.pending.Wait()
	r.logger.Info("task runner stopped")
}
