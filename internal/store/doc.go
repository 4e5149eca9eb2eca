// Package store persists resolved structure metadata in the append-only
// SQLite table structures_metadata.
//
// Rows are only ever inserted. An identifier that appears in the table has
// been resolved by some earlier run, and that is the only fact the next run
// reads back before deciding what to fetch. Column names follow the layout
// of stores produced by earlier tooling so existing files can be extended in
// place; provenance columns are added on open when missing.
//
// A run holds an exclusive file lock next to the database for its whole
// duration so two runs cannot both decide the same identifier is new.
package store
