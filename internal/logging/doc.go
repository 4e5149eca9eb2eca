// Package logging assembles structured slog loggers and formatting helpers used
// across structmeta.
//
// It owns the console and JSON handlers and fans records out to per-run log
// files. Context helpers let pipeline stages tag log lines with the run ID
// and stage name. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
