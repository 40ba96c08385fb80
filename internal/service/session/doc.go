// Package session runs review sessions over one collection.
//
// A session moves through Loading, then Empty or Active, and ends in Summary
// once its queue is exhausted. Each rating is scheduled with SM-2, written to
// the local cache before the session advances, and persisted remotely in the
// background. Failed items are requeued at the end of the session up to a
// per-item relearn cap.
package session
