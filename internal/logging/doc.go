// Package logging assembles structured slog loggers and formatting helpers
// used across the matching engine.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so engine code tags log lines with
// run IDs and pass names consistently. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
