package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"structmeta/internal/annotations"
	"structmeta/internal/canon"
	"structmeta/internal/classification"
	"structmeta/internal/compound"
	"structmeta/internal/config"
	"structmeta/internal/enrich"
	"structmeta/internal/knowncache"
	"structmeta/internal/logging"
	"structmeta/internal/services/npclassifier"
	"structmeta/internal/services/wikidata"
	"structmeta/internal/store"
)

// Summary reports the outcome of one run.
type Summary struct {
	RunID       string                    `json:"run_id"`
	StorePath   string                    `json:"store_path"`
	DryRun      bool                      `json:"dry_run"`
	Known       int                       `json:"known"`
	Pending     int                       `json:"pending"`
	Persisted   int                       `json:"persisted"`
	Extract     annotations.Stats         `json:"extract"`
	Classify    classification.Stats      `json:"classify"`
	Enrich      enrich.Stats              `json:"enrich"`
	Duration    time.Duration             `json:"duration_ns"`
	Records     []compound.ResolvedRecord `json:"records,omitempty"`
	StoreOpened bool                      `json:"store_opened"`
}

// Pipeline wires the resolution stages together.
type Pipeline struct {
	storePath  string
	dryRun     bool
	logger     *slog.Logger
	baseLogger *slog.Logger
	newRunID   func() string

	extractor *annotations.Extractor
	resolver  *classification.Resolver
	enricher  *enrich.Enricher
}

type options struct {
	dryRun        bool
	progress      io.Writer
	classifier    classification.Classifier
	fetcher       enrich.Fetcher
	canonicalizer canon.Canonicalizer
	runID         func() string
}

// Option configures a Pipeline.
type Option func(*options)

// WithDryRun stops each run before anything is written to the store.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithProgress renders classification progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithClassifier replaces the NPClassifier client.
func WithClassifier(c classification.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithFetcher replaces the Wikidata client.
func WithFetcher(f enrich.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithCanonicalizer replaces the canonicalizer selected by configuration.
func WithCanonicalizer(c canon.Canonicalizer) Option {
	return func(o *options) { o.canonicalizer = c }
}

// WithRunID overrides run identifier generation.
func WithRunID(fn func() string) Option {
	return func(o *options) { o.runID = fn }
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if err := cfg.RequireSampleDir(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.canonicalizer == nil {
		c, err := newCanonicalizer(cfg)
		if err != nil {
			return nil, err
		}
		o.canonicalizer = c
	}
	if o.classifier == nil {
		client, err := npclassifier.New(cfg.NPClassifier.BaseURL, npclassifier.WithTimeout(cfg.NPClassifierTimeout()))
		if err != nil {
			return nil, fmt.Errorf("npclassifier client: %w", err)
		}
		o.classifier = client
	}
	if o.fetcher == nil {
		client, err := wikidata.New(cfg.Wikidata.Endpoint,
			wikidata.WithTimeout(cfg.WikidataTimeout()),
			wikidata.WithUserAgent(cfg.Wikidata.UserAgent),
		)
		if err != nil {
			return nil, fmt.Errorf("wikidata client: %w", err)
		}
		o.fetcher = client
	}
	if o.runID == nil {
		o.runID = uuid.NewString
	}

	extractor, err := annotations.New(cfg.Paths.SampleDir, cfg.Sources, o.canonicalizer, logger)
	if err != nil {
		return nil, err
	}
	resolver, err := classification.New(o.classifier, logger, classification.WithProgress(o.progress))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		storePath:  cfg.StorePath(),
		dryRun:     o.dryRun,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		baseLogger: logger,
		newRunID:   o.runID,
		extractor:  extractor,
		resolver:   resolver,
		enricher:   enrich.New(o.fetcher, logger),
	}, nil
}

func newCanonicalizer(cfg *config.Config) (canon.Canonicalizer, error) {
	if cfg.Canonicalizer.Command == "" {
		return canon.Syntax{}, nil
	}
	c, err := canon.NewCommand(cfg.Canonicalizer.Command, cfg.Canonicalizer.Args, config.SmilesPlaceholder, cfg.CanonicalizerTimeout())
	if err != nil {
		return nil, fmt.Errorf("canonicalizer: %w", err)
	}
	return c, nil
}

// Run executes one resolution pass.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{
		RunID:     p.newRunID(),
		StorePath: p.storePath,
		DryRun:    p.dryRun,
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, p.logger)

	lock, err := store.AcquireRunLock(p.storePath)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release store lock", logging.Error(err), logging.String("lock", lock.Path()))
		}
	}()

	logger.Info("resolution run started", logging.String("store", p.storePath), logging.Bool("dry_run", p.dryRun))

	cache, err := knowncache.Load(logging.WithStage(ctx, "cache"), func(ctx context.Context) ([]compound.Identifier, error) {
		return store.ReadIdentifiers(ctx, p.storePath)
	}, p.baseLogger)
	if err != nil {
		return summary, err
	}
	summary.Known = cache.Count()

	acc := compound.NewAccumulator()
	summary.Extract, err = p.extractor.Extract(logging.WithStage(ctx, "extract"), acc, cache)
	if err != nil {
		return summary, fmt.Errorf("extract identifiers: %w", err)
	}
	summary.Pending = acc.Len()

	summary.Classify, err = p.resolver.Resolve(logging.WithStage(ctx, "classify"), acc, cache)
	if err != nil {
		return summary, fmt.Errorf("classify structures: %w", err)
	}

	if acc.Len() == 0 {
		summary.Duration = time.Since(started)
		logger.Info("no new identifiers; store left untouched", logging.Int("known", summary.Known))
		return summary, nil
	}

	records, enrichStats, err := p.enricher.Enrich(logging.WithStage(ctx, "enrich"), acc, summary.RunID)
	summary.Enrich = enrichStats
	if err != nil {
		return summary, fmt.Errorf("enrich identifiers: %w", err)
	}

	if p.dryRun {
		summary.Records = records
		summary.Duration = time.Since(started)
		logger.Info("dry run finished; nothing written", logging.Int("records", len(records)))
		return summary, nil
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if err := p.persist(logging.WithStage(ctx, "persist"), records); err != nil {
		return summary, err
	}
	summary.StoreOpened = true
	summary.Persisted = len(records)
	summary.Duration = time.Since(started)

	logger.Info("resolution run finished",
		logging.Int("persisted", summary.Persisted),
		logging.Int("matched", summary.Enrich.Matched),
		logging.Int("classified", summary.Classify.Queried),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (p *Pipeline) persist(ctx context.Context, records []compound.ResolvedRecord) error {
	st, err := store.Open(ctx, p.storePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.Append(ctx, records); err != nil {
		return fmt.Errorf("append records: %w", err)
	}
	return nil
}
