// Package syncer coordinates the local cache with the remote store.
//
// Reads follow one of two policies. Batch reads (collection stats, item
// lists) are served from the cache only when every requested partition is
// fresh; otherwise the whole batch is fetched remotely and written back.
// Review material is served stale-while-revalidate: whatever the cache holds
// is returned at once and a deduplicated background refresh repopulates it.
//
// Writes are two-phase. ApplyLocal updates the cache synchronously so the
// rest of a session reads its own writes. CommitRemote and AppendLog run as
// background tasks whose failures are logged, never returned to the session.
package syncer
