//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can run in parallel against the same schema without
// cleanup:
//
//	func TestMyFeature(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        remote := postgres.NewPostgresRemoteStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Tests are skipped when no database URL is configured. The URL is read from
// DATABASE_URL, then SCRY_TEST_DB_URL, then SCRY_DATABASE_URL.
package testdb
