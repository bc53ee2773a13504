// Package logging provides structured logging utilities for roombook.
//
// It centralizes attribute naming and handler construction so every package
// logs the same way through the standard library's slog.
//
// # Usage Patterns
//
// Build the process logger from configuration:
//
//	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
//
// Scope a logger to a component and attach standard attributes:
//
//	logger := logging.WithService(logger, "booking")
//	logger.Warn("end time adjusted", logging.Err(err))
//
// # Security Considerations
//
//   - Tokens are never logged directly, use SanitizeToken
//   - Attendee addresses are hashed with Addresses
package logging
