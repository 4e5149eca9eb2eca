package compound

import "time"

// Source names the annotation pipeline that first observed an identifier.
type Source string

const (
	SourceISDB   Source = "isdb"
	SourceSirius Source = "sirius"
	SourceGNPS   Source = "gnps"
)

// PendingRecord is the in-memory state of an identifier during one run.
type PendingRecord struct {
	Identifier  Identifier
	Structure   string
	Taxonomy    Taxonomy
	HasTaxonomy bool
	Source      Source
	Sample      string
}

// ResolvedRecord is one persisted row of the store. Rows are never updated.
type ResolvedRecord struct {
	Identifier         Identifier `json:"identifier"`
	ExternalID         string     `json:"external_id"`
	InChIKey           string     `json:"inchikey"`
	CanonicalStructure string     `json:"canonical_structure"`
	SourceStructure    string     `json:"source_structure"`
	Taxonomy           Taxonomy   `json:"taxonomy"`
	Source             Source     `json:"source"`
	RunID              string     `json:"run_id"`
	ResolvedAt         time.Time  `json:"resolved_at"`
}

// HasExternalReference reports whether the record joined a knowledge-base row.
func (r ResolvedRecord) HasExternalReference() bool {
	return r.ExternalID != "" && r.ExternalID != NoExternalReference
}
