// Package enrich joins pending identifiers with the knowledge-base
// cross-reference table and produces the rows to persist.
//
// The join is an outer join from the accumulator side: every pending
// identifier yields exactly one record, matched or not.
package enrich
