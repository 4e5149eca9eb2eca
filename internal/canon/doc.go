// Package canon turns free-form structure strings reported by the spectral
// search service into the canonical form stored alongside an identifier.
//
// The notation itself is opaque to structmeta. Canonicalization is delegated
// to an external command (Open Babel by default) when one is configured;
// otherwise a syntax check rejects strings that cannot be line notation and
// passes the rest through trimmed. Callers drop rows whose structure fails
// either path.
package canon
