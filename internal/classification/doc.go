// Package classification fills the taxonomy of pending identifiers that no
// source table classified.
//
// Every such identifier is sent to the classifier exactly once, in
// accumulator order. Any failure yields the all-unknown taxonomy and the
// identifier is treated as resolved; there are no retries. Taxonomy carried
// by a source table is never replaced.
package classification
