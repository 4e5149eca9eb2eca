package annotations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"structmeta/internal/canon"
	"structmeta/internal/compound"
	"structmeta/internal/config"
	"structmeta/internal/knowncache"
	"structmeta/internal/logging"
)

// Stats summarizes one extraction pass.
type Stats struct {
	Samples        int                     `json:"samples"`
	FilesRead      int                     `json:"files_read"`
	InvalidTables  int                     `json:"invalid_tables"`
	RowsSeen       int                     `json:"rows_seen"`
	InvalidRows    int                     `json:"invalid_rows"`
	Duplicates     int                     `json:"duplicates"`
	AlreadyPending int                     `json:"already_pending"`
	KnownSkipped   int                     `json:"known_skipped"`
	Dropped        int                     `json:"dropped"`
	Added          map[compound.Source]int `json:"added"`
}

// AddedTotal returns the number of identifiers added across sources.
func (s Stats) AddedTotal() int {
	total := 0
	for _, n := range s.Added {
		total += n
	}
	return total
}

type sourceSpec struct {
	schema    schema
	templates []string
}

// Extractor walks a sample tree and fills an accumulator.
type Extractor struct {
	sampleDir     string
	sources       []sourceSpec
	canonicalizer canon.Canonicalizer
	logger        *slog.Logger
}

// New builds an extractor over sampleDir. A nil canonicalizer selects the
// built-in syntax check.
func New(sampleDir string, sources config.Sources, canonicalizer canon.Canonicalizer, logger *slog.Logger) (*Extractor, error) {
	sampleDir = strings.TrimSpace(sampleDir)
	if sampleDir == "" {
		return nil, errors.New("sample directory required")
	}
	if canonicalizer == nil {
		canonicalizer = canon.Syntax{}
	}
	return &Extractor{
		sampleDir: sampleDir,
		sources: []sourceSpec{
			{schema: isdbSchema, templates: sources.ISDB},
			{schema: siriusSchema, templates: sources.Sirius},
			{schema: gnpsSchema, templates: sources.GNPS},
		},
		canonicalizer: canonicalizer,
		logger:        logging.NewComponentLogger(logger, "extractor"),
	}, nil
}

// Samples lists the sample directory names in sorted order. Regular files
// at the top level (the store among them) are ignored.
func (e *Extractor) Samples() ([]string, error) {
	entries, err := os.ReadDir(e.sampleDir)
	if err != nil {
		return nil, fmt.Errorf("read sample directory: %w", err)
	}
	samples := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			samples = append(samples, entry.Name())
		}
	}
	sort.Strings(samples)
	return samples, nil
}

// Extract adds every new identifier found in the sample tree to acc.
// Identifiers pending in acc or known to the cache are skipped.
func (e *Extractor) Extract(ctx context.Context, acc *compound.Accumulator, known *knowncache.Cache) (Stats, error) {
	stats := Stats{Added: map[compound.Source]int{}}
	if acc == nil {
		return stats, errors.New("extract: nil accumulator")
	}
	samples, err := e.Samples()
	if err != nil {
		return stats, err
	}
	stats.Samples = len(samples)
	logger := logging.WithContext(ctx, e.logger)

	for _, src := range e.sources {
		for _, sample := range samples {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			rows := e.loadSample(logger, sample, src, &stats)
			if err := e.merge(ctx, logger, acc, known, sample, src.schema, rows, &stats); err != nil {
				return stats, err
			}
		}
	}

	logger.Info("annotation tables scanned",
		logging.Int("samples", stats.Samples),
		logging.Int("files", stats.FilesRead),
		logging.Int("added", stats.AddedTotal()),
		logging.Int("known_skipped", stats.KnownSkipped),
		logging.Int("dropped", stats.Dropped),
	)
	return stats, nil
}

// loadSample concatenates the per-mode tables of one sample in template
// order.
func (e *Extractor) loadSample(logger *slog.Logger, sample string, src sourceSpec, stats *Stats) []row {
	logger = logger.With(
		logging.String(logging.FieldSample, sample),
		logging.String(logging.FieldSource, string(src.schema.source)),
	)
	var rows []row
	for _, template := range src.templates {
		path := e.tablePath(sample, template)
		tableRows, tableStats, err := readTable(path, src.schema)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("annotation table not present", logging.String("path", path))
			continue
		case errors.Is(err, errMissingColumn):
			stats.InvalidTables++
			logging.WarnWithContext(logger, "annotation table skipped", "annotation_table_invalid",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the table was exported by the expected pipeline version"),
				logging.String(logging.FieldImpact, "identifiers from this table are not collected"),
			)
			continue
		default:
			stats.InvalidTables++
			logging.WarnWithContext(logger, "annotation table unreadable", "annotation_table_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "identifiers from this table are not collected"),
			)
			continue
		}
		stats.FilesRead++
		stats.RowsSeen += tableStats.rows
		stats.InvalidRows += tableStats.invalid
		logger.Debug("annotation table loaded", logging.String("path", path), logging.Int("rows", len(tableRows)))
		rows = append(rows, tableRows...)
	}
	return rows
}

func (e *Extractor) merge(ctx context.Context, logger *slog.Logger, acc *compound.Accumulator, known *knowncache.Cache, sample string, s schema, rows []row, stats *Stats) error {
	seen := make(map[compound.Identifier]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.identifier]; dup {
			stats.Duplicates++
			continue
		}
		if acc.Has(r.identifier) {
			seen[r.identifier] = struct{}{}
			stats.AlreadyPending++
			continue
		}
		if known.Known(r.identifier) {
			seen[r.identifier] = struct{}{}
			stats.KnownSkipped++
			continue
		}

		structure := r.structure
		if s.canonicalize {
			if structure == "" {
				stats.Dropped++
				continue
			}
			canonical, err := e.canonicalizer.Canonicalize(ctx, structure)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				stats.Dropped++
				logger.Debug("structure rejected",
					logging.String(logging.FieldIdentifier, r.identifier.String()),
					logging.String(logging.FieldSample, sample),
					logging.Error(err),
				)
				continue
			}
			structure = canonical
		}

		seen[r.identifier] = struct{}{}
		if err := acc.Add(compound.PendingRecord{
			Identifier:  r.identifier,
			Structure:   structure,
			Taxonomy:    r.taxonomy,
			HasTaxonomy: r.hasTaxonomy,
			Source:      s.source,
			Sample:      sample,
		}); err != nil {
			return fmt.Errorf("add %s: %w", r.identifier, err)
		}
		stats.Added[s.source]++
	}
	return nil
}

func (e *Extractor) tablePath(sample, template string) string {
	rel := strings.ReplaceAll(template, config.SamplePlaceholder, sample)
	return filepath.Join(e.sampleDir, sample, filepath.FromSlash(rel))
}
