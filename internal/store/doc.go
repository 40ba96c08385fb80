// Package store defines the persistence contracts of the review core: the
// remote store of record, the local durable cache that fronts it, and the
// error taxonomy both sides report through. Business logic depends only on
// these interfaces, never on a concrete database.
package store
