// Command structmeta resolves chemical-structure metadata for the
// identifiers found in untargeted-metabolomics annotation tables and keeps
// the results in an append-only SQLite store next to the samples.
//
// Usage:
//
//	structmeta resolve [--sample-dir DIR] [--dry-run] [--no-progress]
//	structmeta list [--limit N]
//	structmeta show IDENTIFIER
//	structmeta stats
//	structmeta config init|show
//
// Every command accepts --json for machine-readable output.
package main
