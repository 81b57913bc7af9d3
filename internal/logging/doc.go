// Package logging assembles structured slog loggers and formatting helpers used
// across the receiver.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and fans records out to the terminal and the persistent log file.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
