// Package wikidata downloads the InChIKey cross-reference table from a
// Wikidata SPARQL endpoint in one bulk query.
package wikidata
