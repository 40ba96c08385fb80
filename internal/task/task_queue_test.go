package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTask implements the Task interface for testing
type mockTask struct {
	id       uuid.UUID
	taskType string
	execFn   func(ctx context.Context) error
}

func (m *mockTask) ID() uuid.UUID {
	return m.id
}

func (m *mockTask) Type() string {
	return m.taskType
}

func (m *mockTask) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockTask(execFn func(ctx context.Context) error) *mockTask {
	return &mockTask{
		id:       uuid.New(),
		taskType: "mock",
		execFn:   execFn,
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newJob(task Task) Job {
	return Job{Ctx: context.Background(), Task: task}
}

func TestNewTaskQueue(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())

	assert.NotNil(t, queue)
	assert.Equal(t, 10, cap(queue.jobs))
	assert.False(t, queue.closed)

	assert.Equal(t, 0, cap(NewTaskQueue(-1, setupTestLogger()).jobs))
}

func TestTaskQueue_Enqueue(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())

	require.NoError(t, queue.Enqueue(newJob(newMockTask(nil))))
	require.NoError(t, queue.Enqueue(newJob(newMockTask(nil))))

	err := queue.Enqueue(newJob(newMockTask(nil)))
	assert.True(t, errors.Is(err, ErrQueueFull))

	first := <-queue.GetChannel()
	assert.Equal(t, "mock", first.Task.Type())
	assert.NoError(t, queue.Enqueue(newJob(newMockTask(nil))), "space frees up after a read")
}

func TestTaskQueue_Close(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())
	task := newMockTask(nil)
	require.NoError(t, queue.Enqueue(newJob(task)))

	queue.Close()
	queue.Close()

	assert.ErrorIs(t, queue.Enqueue(newJob(newMockTask(nil))), ErrQueueClosed)

	job, ok := <-queue.GetChannel()
	require.True(t, ok, "queued jobs survive close")
	assert.Equal(t, task.ID(), job.Task.ID())

	_, ok = <-queue.GetChannel()
	assert.False(t, ok)
}
