package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"structmeta/internal/classification"
	"structmeta/internal/compound"
	"structmeta/internal/config"
	"structmeta/internal/pipeline"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var sampleDir string
	var dryRun bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve metadata for new identifiers and append them to the store",
		Long: `Resolve metadata for new identifiers and append them to the store.

Scans every sample directory for ISDB, SIRIUS and GNPS annotation tables,
skips identifiers already present in the store, classifies the remaining
structures, joins them with Wikidata cross references and appends one row per
new identifier. Running it again on unchanged inputs does nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dir := strings.TrimSpace(sampleDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve sample directory: %w", err)
				}
				cfg.Paths.SampleDir = expanded
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := []pipeline.Option{pipeline.WithDryRun(dryRun)}
			if !noProgress && !ctx.JSONMode() {
				if w := classification.TerminalWriter(os.Stderr); w != nil {
					opts = append(opts, pipeline.WithProgress(w))
				}
			}
			p, err := pipeline.New(cfg, logger, opts...)
			if err != nil {
				return err
			}

			summary, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}
			printResolveSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&sampleDir, "sample-dir", "", "Directory containing one sub-directory per sample (overrides paths.sample_dir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve but do not write to the store")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the classification progress bar")
	return cmd
}

func printResolveSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	pairs := [][2]string{
		{"Run", summary.RunID},
		{"Store", summary.StorePath},
		{"Samples", formatCount(summary.Extract.Samples)},
		{"Tables read", formatCount(summary.Extract.FilesRead)},
		{"Already stored", formatCount(summary.Known)},
		{"New identifiers", formatCount(summary.Pending)},
	}
	sources := make([]string, 0, len(summary.Extract.Added))
	for source := range summary.Extract.Added {
		sources = append(sources, string(source))
	}
	sort.Strings(sources)
	for _, source := range sources {
		n := summary.Extract.Added[compound.Source(source)]
		pairs = append(pairs, [2]string{"  from " + source, formatCount(n)})
	}
	pairs = append(pairs,
		[2]string{"Skipped (known)", formatCount(summary.Extract.KnownSkipped)},
		[2]string{"Dropped rows", formatCount(summary.Extract.Dropped)},
		[2]string{"Classified", formatCount(summary.Classify.Queried)},
		[2]string{"Classification failures", formatCount(summary.Classify.Failed)},
		[2]string{"Wikidata matches", formatCount(summary.Enrich.Matched)},
		[2]string{"Without Wikidata match", formatCount(summary.Enrich.Unmatched)},
	)
	if summary.Enrich.Degraded {
		pairs = append(pairs, [2]string{"Wikidata", "unavailable (stored without cross references)"})
	}
	if summary.DryRun {
		pairs = append(pairs, [2]string{"Dry run", fmt.Sprintf("yes (%d rows not written)", len(summary.Records))})
	} else {
		pairs = append(pairs, [2]string{"Rows appended", formatCount(summary.Persisted)})
	}
	pairs = append(pairs, [2]string{"Store written", yesNo(summary.StoreOpened)})
	fmt.Fprintln(out, renderPairs(pairs))
}
