package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"structmeta/internal/compound"
	"structmeta/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored structure records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				records, err := st.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if records == nil {
						records = []compound.ResolvedRecord{}
					}
					return writeJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "Store is empty")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.Identifier.String(),
						rec.Taxonomy.Pathway,
						rec.Taxonomy.Superclass,
						rec.Taxonomy.Class,
						externalLabel(rec),
						sourceLabel(rec.Source),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Identifier", "Pathway", "Superclass", "Class", "Wikidata", "Source"},
					rows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of rows to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of rows to skip")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <identifier>",
		Short: "Show every stored row for one identifier",
		Long: `Show every stored row for one identifier.

The identifier may be a full InChIKey or its first 14-character block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := compound.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				records, err := st.Lookup(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return fmt.Errorf("identifier %s not found in store", id)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				for i, rec := range records {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, renderPairs([][2]string{
						{"Identifier", rec.Identifier.String()},
						{"InChIKey", rec.InChIKey},
						{"Wikidata", rec.ExternalID},
						{"Structure", rec.CanonicalStructure},
						{"Source structure", rec.SourceStructure},
						{"Pathway", strings.Join(labelsOrUnknown(rec.Taxonomy.Pathway), ", ")},
						{"Superclass", strings.Join(labelsOrUnknown(rec.Taxonomy.Superclass), ", ")},
						{"Class", strings.Join(labelsOrUnknown(rec.Taxonomy.Class), ", ")},
						{"Source", sourceLabel(rec.Source)},
						{"Run", rec.RunID},
						{"Resolved", formatTime(rec.ResolvedAt)},
					}))
				}
				return nil
			})
		},
	}
}

func labelsOrUnknown(value string) []string {
	labels := compound.SplitLabels(value)
	if len(labels) == 0 {
		return []string{compound.Unknown}
	}
	return labels
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the metadata store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				summary, err := st.Summary(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, summary)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderPairs([][2]string{
					{"Store", st.Path()},
					{"Rows", formatCount(summary.Rows)},
					{"Identifiers", formatCount(summary.Identifiers)},
					{"Duplicate rows", formatCount(summary.DuplicateRows)},
					{"Without Wikidata match", formatCount(summary.WithoutReference)},
					{"Unknown pathway", formatCount(summary.UnknownPathway)},
					{"Fully unknown taxonomy", formatCount(summary.FullyUnknown)},
					{"Runs", formatCount(summary.Runs)},
					{"Last resolved", formatTime(summary.LastResolvedAt)},
				}))

				if len(summary.BySource) > 0 {
					sources := make([]string, 0, len(summary.BySource))
					for source := range summary.BySource {
						sources = append(sources, source)
					}
					sort.Strings(sources)
					rows := make([][]string, 0, len(sources))
					for _, source := range sources {
						rows = append(rows, []string{source, formatCount(summary.BySource[source])})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable([]string{"Source", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
}
