// Package services hosts the clients for the external services structmeta
// talks to (NPClassifier, Wikidata) and the error markers they share.
//
// Every client wraps its failures with one of the sentinel errors in this
// package so the pipeline can decide, with errors.Is, whether a failure
// degrades to a sentinel value or aborts the run.
package services
