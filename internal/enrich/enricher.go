package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"structmeta/internal/compound"
	"structmeta/internal/logging"
	"structmeta/internal/services"
	"structmeta/internal/services/wikidata"
)

// Fetcher downloads the cross-reference table.
type Fetcher interface {
	FetchInChIKeys(ctx context.Context) ([]wikidata.Binding, error)
}

var _ Fetcher = (*wikidata.Client)(nil)

// Stats summarizes one enrichment pass.
type Stats struct {
	Bindings  int  `json:"bindings"`
	Matched   int  `json:"matched"`
	Unmatched int  `json:"unmatched"`
	Ambiguous int  `json:"ambiguous"`
	Degraded  bool `json:"degraded"`
}

// Enricher fetches the table and performs the join.
type Enricher struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs an enricher.
func New(fetcher Fetcher, logger *slog.Logger) *Enricher {
	return &Enricher{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "enricher"),
		now:     time.Now,
	}
}

// Enrich returns one resolved record per pending identifier, in
// accumulator order. A failed fetch is treated as an empty table; only
// context cancellation is returned as an error. An empty accumulator
// skips the fetch entirely.
func (e *Enricher) Enrich(ctx context.Context, acc *compound.Accumulator, runID string) ([]compound.ResolvedRecord, Stats, error) {
	var stats Stats
	if acc == nil || acc.Len() == 0 {
		return nil, stats, nil
	}

	logger := logging.WithContext(ctx, e.logger)

	var bindings []wikidata.Binding
	if e.fetcher != nil {
		logger.Info("fetching knowledge-base cross references")
		fetched, err := e.fetcher.FetchInChIKeys(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, stats, ctxErr
			}
			stats.Degraded = true
			if services.Degradable(err) {
				logging.WarnWithContext(logger, "knowledge-base query failed; continuing without cross references", "wikidata_fetch_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check wikidata.endpoint or retry later"),
					logging.String(logging.FieldImpact, "new identifiers are stored without external references"),
				)
			} else {
				logging.ErrorWithContext(logger, "knowledge-base query could not be issued; continuing without cross references", "wikidata_fetch_error",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check wikidata.endpoint is a valid http(s) URL"),
				)
			}
		} else {
			bindings = fetched
		}
	}
	stats.Bindings = len(bindings)

	matches, ambiguous := Filter(bindings, acc)
	stats.Ambiguous = ambiguous
	records := Join(acc, matches, runID, e.now().UTC())
	for _, rec := range records {
		if rec.HasExternalReference() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
	}
	logger.Info("cross references joined",
		logging.Int("bindings", stats.Bindings),
		logging.Int("matched", stats.Matched),
		logging.Int("unmatched", stats.Unmatched),
	)
	return records, stats, nil
}

// Filter keeps the bindings whose InChIKey truncates to a pending
// identifier. When several bindings share an identifier the one with the
// lexicographically smallest external ID is kept; ambiguous counts the
// identifiers that had more than one.
func Filter(bindings []wikidata.Binding, acc *compound.Accumulator) (map[compound.Identifier]wikidata.Binding, int) {
	matches := make(map[compound.Identifier]wikidata.Binding)
	multiple := make(map[compound.Identifier]struct{})
	for _, b := range bindings {
		id, ok := compound.FromInChIKey(b.InChIKey)
		if !ok || !acc.Has(id) {
			continue
		}
		current, exists := matches[id]
		if exists {
			multiple[id] = struct{}{}
			if b.ExternalID >= current.ExternalID {
				continue
			}
		}
		matches[id] = b
	}
	return matches, len(multiple)
}

// Join builds the persisted rows. Unmatched identifiers and any field still
// empty receive the no-reference sentinel; the canonical structure falls
// back to the structure observed in the source tables.
func Join(acc *compound.Accumulator, matches map[compound.Identifier]wikidata.Binding, runID string, resolvedAt time.Time) []compound.ResolvedRecord {
	records := make([]compound.ResolvedRecord, 0, acc.Len())
	for _, pending := range acc.Records() {
		rec := compound.ResolvedRecord{
			Identifier:      pending.Identifier,
			SourceStructure: pending.Structure,
			Taxonomy:        pending.Taxonomy.Complete(),
			Source:          pending.Source,
			RunID:           runID,
			ResolvedAt:      resolvedAt,
		}
		if b, ok := matches[pending.Identifier]; ok {
			rec.ExternalID = b.ExternalID
			rec.InChIKey = b.InChIKey
			rec.CanonicalStructure = b.Structure
		}
		if strings.TrimSpace(rec.CanonicalStructure) == "" {
			rec.CanonicalStructure = pending.Structure
		}
		rec.ExternalID = orSentinel(rec.ExternalID)
		rec.InChIKey = orSentinel(rec.InChIKey)
		rec.CanonicalStructure = orSentinel(rec.CanonicalStructure)
		rec.SourceStructure = orSentinel(rec.SourceStructure)
		records = append(records, rec)
	}
	return records
}

func orSentinel(value string) string {
	if strings.TrimSpace(value) == "" {
		return compound.NoExternalReference
	}
	return value
}
