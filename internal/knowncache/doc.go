// Package knowncache holds the identifiers already present in the metadata
// store. It is loaded once at the start of a run and consulted read-only by
// extraction and classification so that no identifier is fetched twice.
package knowncache
