// Package logging assembles the structured slog loggers used across
// dubmux.
//
// It owns console/JSON handler construction, level parsing, and the
// stderr/file tee, and exposes a no-op logger for tests and wiring code
// that cannot fail. Prefer these constructors over hand-rolled slog
// setup so every component emits the same shape.
package logging
