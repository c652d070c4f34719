// Package history persists one row per processed file in a SQLite database
// under the state directory. `muxprep history` lists it and
// `muxprep run --skip-processed` consults it to avoid redoing finished files.
//
// Stores opened against a database written by a different schema version
// fail with ErrSchemaMismatch; delete history.db to start over.
package history
