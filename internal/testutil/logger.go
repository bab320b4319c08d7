package testutil

import "log/slog"

// DiscardLogger returns a slog.Logger that discards all output.
// Use in tests to keep output quiet.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
