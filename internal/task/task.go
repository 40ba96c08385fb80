package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeCommitReview persists a rating to the remote store.
	TaskTypeCommitReview = "commit_review"

	// TaskTypeAppendReviewLog appends a review log entry to the remote store.
	TaskTypeAppendReviewLog = "append_review_log"

	// TaskTypeRefreshMaterial repopulates cached items and learning states.
	TaskTypeRefreshMaterial = "refresh_review_material"
)

// Task represents a unit of background work to be processed
// Version: 1.0
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// FuncTask adapts a function to the Task interface.
type FuncTask struct {
	id       uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
}

// NewFuncTask wraps fn as a task of the given type.
func NewFuncTask(taskType string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{
		id:       uuid.New(),
		taskType: taskType,
		fn:       fn,
	}
}

// ID implements Task.
func (t *FuncTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.
func (t *FuncTask) Type() string {
	return t.taskType
}

// Execute implements Task.
func (t *FuncTask) Execute(ctx context.Context) error {
	return t.fn(ctx)
}

// Job is a queued task together with the context it executes under.
type Job struct {
	Ctx  context.Context
	Task Task

	done func()
}

// TaskQueueReader provides read-only access to queued jobs
// allowing workers to consume them without the ability to enqueue
// Version: 1.0
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs.
	// The channel is closed when the queue is closed.
	GetChannel() <-chan Job
}

// TaskQueueWriter provides write access to the task queue
// Version: 1.0
type TaskQueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(job Job) error

	// Close closes the task queue, preventing further submission
	Close()
}
