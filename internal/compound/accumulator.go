package compound

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPending is returned when a second source tries to create a
	// record for an identifier that already has one.
	ErrAlreadyPending = errors.New("identifier already pending")
	// ErrTaxonomyPresent is returned when classification output would
	// replace an existing taxonomy.
	ErrTaxonomyPresent = errors.New("taxonomy already set")
)

// Accumulator holds the pending records of one run keyed by identifier,
// remembering insertion order. It is owned by a single goroutine; stages
// receive it by pointer and mutate it through its methods only.
type Accumulator struct {
	records map[Identifier]*PendingRecord
	order   []Identifier
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{records: make(map[Identifier]*PendingRecord)}
}

// Add creates the record for rec.Identifier. The first writer owns the
// structure and any source-supplied taxonomy.
func (a *Accumulator) Add(rec PendingRecord) error {
	if rec.Identifier == "" {
		return errors.New("pending record: empty identifier")
	}
	if _, exists := a.records[rec.Identifier]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyPending, rec.Identifier)
	}
	if rec.HasTaxonomy {
		rec.Taxonomy = rec.Taxonomy.Complete()
	} else {
		rec.Taxonomy = Taxonomy{}
	}
	stored := rec
	a.records[rec.Identifier] = &stored
	a.order = append(a.order, rec.Identifier)
	return nil
}

// Has reports whether id is pending.
func (a *Accumulator) Has(id Identifier) bool {
	_, ok := a.records[id]
	return ok
}

// Get returns a copy of the pending record for id.
func (a *Accumulator) Get(id Identifier) (PendingRecord, bool) {
	rec, ok := a.records[id]
	if !ok {
		return PendingRecord{}, false
	}
	return *rec, true
}

// SetTaxonomy records classifier output for an identifier that did not carry
// its own taxonomy. It refuses to overwrite.
func (a *Accumulator) SetTaxonomy(id Identifier, taxonomy Taxonomy) error {
	rec, ok := a.records[id]
	if !ok {
		return fmt.Errorf("set taxonomy: %s not pending", id)
	}
	if rec.HasTaxonomy {
		return fmt.Errorf("%w: %s", ErrTaxonomyPresent, id)
	}
	rec.Taxonomy = taxonomy.Complete()
	rec.HasTaxonomy = true
	return nil
}

// Len returns the number of pending records.
func (a *Accumulator) Len() int { return len(a.order) }

// Identifiers returns pending identifiers in insertion order.
func (a *Accumulator) Identifiers() []Identifier {
	out := make([]Identifier, len(a.order))
	copy(out, a.order)
	return out
}

// Records returns copies of the pending records in insertion order.
func (a *Accumulator) Records() []PendingRecord {
	out := make([]PendingRecord, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.records[id])
	}
	return out
}

// Unclassified returns the identifiers still lacking a taxonomy, in
// insertion order.
func (a *Accumulator) Unclassified() []Identifier {
	var out []Identifier
	for _, id := range a.order {
		if !a.records[id].HasTaxonomy {
			out = append(out, id)
		}
	}
	return out
}
