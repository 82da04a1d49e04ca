// Package ledger persists the engine's durable state in SQLite: the bounded
// newest-first move history and the content-hash ledger used for duplicate
// detection.
//
// The Store manages the database connection, schema initialization, and the
// eviction that keeps the move history within its configured capacity. The
// engine is the only writer; dashboards and the CLI open the database
// read-only and never contend with in-flight moves beyond SQLite's busy
// timeout. Schema changes bump the version in schema.go; the database is
// working state, not an archive, so users clear it to adopt a new schema.
package ledger
