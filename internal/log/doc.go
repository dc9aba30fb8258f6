// Package log provides the sitesearch loggers: slog handlers that mask
// credentials and shorten oversized values before they reach the output.
//
// Crawled pages routinely carry session identifiers in their links
// (?sid=..., ?token=...) and a careless attribute can dump a whole page body
// into the log. SecureHandler wraps any slog.Handler and:
//   - masks attributes whose key names a credential (cookie, token, password)
//   - masks values that look like credentials (JWT, bearer, AWS keys)
//   - masks sensitive query parameters inside URL values
//   - truncates long string values to MaxValueLength runes
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("page fetched", "url", "https://example.com/?sid=42")
//	// url=https://example.com/?sid=***REDACTED***
package log
