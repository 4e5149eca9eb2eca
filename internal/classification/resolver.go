package classification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"structmeta/internal/compound"
	"structmeta/internal/knowncache"
	"structmeta/internal/logging"
	"structmeta/internal/services"
	"structmeta/internal/services/npclassifier"
)

// Classifier returns the taxonomy label lists for one structure.
type Classifier interface {
	Classify(ctx context.Context, structure string) (*npclassifier.Result, error)
}

var _ Classifier = (*npclassifier.Client)(nil)

// Stats summarizes one resolution pass.
type Stats struct {
	Queried          int `json:"queried"`
	Failed           int `json:"failed"`
	PartiallyUnknown int `json:"partially_unknown"`
	EmptyStructure   int `json:"empty_structure"`
}

// Resolver drives the classifier over an accumulator.
type Resolver struct {
	classifier Classifier
	logger     *slog.Logger
	progress   io.Writer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProgress renders a progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) Option {
	return func(r *Resolver) {
		r.progress = w
	}
}

// New constructs a resolver.
func New(classifier Classifier, logger *slog.Logger, opts ...Option) (*Resolver, error) {
	if classifier == nil {
		return nil, errors.New("classifier required")
	}
	r := &Resolver{
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve classifies every pending identifier that carries no taxonomy and
// is not known to cache. Only context cancellation aborts the pass.
func (r *Resolver) Resolve(ctx context.Context, acc *compound.Accumulator, cache *knowncache.Cache) (Stats, error) {
	var stats Stats
	if acc == nil {
		return stats, errors.New("resolve: nil accumulator")
	}

	logger := logging.WithContext(ctx, r.logger)

	var targets []compound.Identifier
	for _, id := range acc.Unclassified() {
		if cache.Known(id) {
			continue
		}
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		logger.Debug("no identifiers need classification")
		return stats, nil
	}

	bar := newProgress(r.progress, len(targets), logger)
	defer bar.finish()

	logger.Info("classifying structures", logging.Int("count", len(targets)))
	for _, id := range targets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, _ := acc.Get(id)
		taxonomy, err := r.classify(ctx, logger, rec, &stats)
		if err != nil {
			return stats, err
		}
		if err := acc.SetTaxonomy(id, taxonomy); err != nil {
			return stats, fmt.Errorf("record taxonomy: %w", err)
		}
		bar.add()
	}

	logger.Info("classification finished",
		logging.Int("queried", stats.Queried),
		logging.Int("failed", stats.Failed),
		logging.Int("partially_unknown", stats.PartiallyUnknown),
	)
	return stats, nil
}

// classify computes the complete triple for one record before anything is
// written to the accumulator.
func (r *Resolver) classify(ctx context.Context, logger *slog.Logger, rec compound.PendingRecord, stats *Stats) (compound.Taxonomy, error) {
	logger = logger.With(logging.String(logging.FieldIdentifier, rec.Identifier.String()))
	if rec.Structure == "" {
		stats.EmptyStructure++
		stats.Failed++
		logger.Debug("no structure to classify")
		return compound.UnknownTaxonomy(), nil
	}

	stats.Queried++
	result, err := r.classifier.Classify(ctx, rec.Structure)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return compound.Taxonomy{}, ctxErr
		}
		stats.Failed++
		if !services.Degradable(err) {
			logging.ErrorWithContext(logger, "classification request could not be issued; taxonomy set to unknown", "classification_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check npclassifier.base_url is a valid http(s) URL"),
			)
			return compound.UnknownTaxonomy(), nil
		}
		logging.WarnWithContext(logger, "classification failed; taxonomy set to unknown", "classification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check npclassifier.base_url and service availability"),
			logging.String(logging.FieldImpact, "identifier is stored with an unknown taxonomy and not retried"),
		)
		return compound.UnknownTaxonomy(), nil
	}
	if result == nil {
		stats.Failed++
		return compound.UnknownTaxonomy(), nil
	}

	taxonomy := result.Taxonomy()
	if taxonomy.UnknownLevels() > 0 {
		stats.PartiallyUnknown++
	}
	logger.Debug("structure classified",
		logging.String("pathway", taxonomy.Pathway),
		logging.String("superclass", taxonomy.Superclass),
		logging.String("class", taxonomy.Class),
	)
	return taxonomy, nil
}
