// Package logging provides structured logging helpers for meetlink.
//
// It centralizes slog attribute naming so log lines are queryable across
// the codebase, and keeps credentials out of logs: session tokens are
// never logged directly, only as a masked length indicator.
package logging
