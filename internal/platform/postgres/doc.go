// Package postgres implements store.RemoteStore on PostgreSQL through the
// pgx database/sql driver. It also owns the remote schema: goose migrations
// embedded in the binary, including the commit_review procedure used for
// atomic review commits.
package postgres
