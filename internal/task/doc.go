// Package task runs fire-and-forget background work such as remote review
// commits, review-log appends and cache refreshes. Tasks are executed by a
// bounded worker pool; when the pool's queue is full a task runs on its own
// goroutine instead of blocking the caller.
package task
