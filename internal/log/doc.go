// Package log provides secure logging built on top of the standard slog package.
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers and cookies configured per site (Authorization, Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (bearer tokens, JWTs, API keys)
//   - Credentials embedded in crawled URLs and sensitive query parameters
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Info("fetched page",
//	    "url", "https://user:pw@example.com/a?token=abc", // logged as https://example.com/a?token=***REDACTED***
//	    "cookie", "session=abc123",                      // masked
//	)
//	slog.SetDefault(logger)
package log
