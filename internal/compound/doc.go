// Package compound defines the identity types shared by every resolution
// stage: the truncated InChIKey identifier, the NPClassifier taxonomy triple,
// the in-memory pending record and the persisted resolved record.
//
// The Accumulator is the single map that travels through extraction and
// classification. It enforces first-writer-wins semantics per field so that a
// structure observed by an earlier source is never replaced by a later one,
// and a taxonomy supplied by a source table is never replaced by the
// classifier.
package compound
