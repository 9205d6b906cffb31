// Package history keeps a SQLite ledger of packaging runs.
//
// Every run appends one row to the builds table, whether it produced a new
// archive or only republished the index pages from the version sidecar. The
// schema is embedded and stamped with a version; opening a database written by
// a different schema version fails with ErrSchemaMismatch rather than
// migrating in place.
package history
