// Package sqlite implements the local durable cache on an embedded SQLite
// database using the pure Go modernc.org/sqlite driver and sqlx for row
// mapping. The cache is an optimization in front of the remote store: every
// storage failure is logged and reported to callers as an absent or stale
// partition.
package sqlite
