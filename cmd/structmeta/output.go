package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"structmeta/internal/compound"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}

func externalLabel(rec compound.ResolvedRecord) string {
	if !rec.HasExternalReference() {
		return "-"
	}
	return rec.ExternalID
}

func sourceLabel(source compound.Source) string {
	if source == "" {
		return "legacy"
	}
	return string(source)
}
