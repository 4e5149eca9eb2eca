// Package pipeline runs one incremental resolution pass over a sample tree.
//
// A run takes the store lock, loads the identifiers already stored, extracts
// new identifiers from the annotation tables, classifies the ones without a
// taxonomy, joins them with the knowledge-base cross references and appends
// the result to the store in a single transaction. A run that finds nothing
// new never opens the store.
package pipeline
