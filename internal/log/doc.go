// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of GitHub tokens and other secrets
//   - Configurable log levels with verbose mode support
//   - A discard logger for raw output mode
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Api-Key)
//   - Attributes whose key mentions a token, secret, password or credential
//   - GitHub tokens (ghp_, gho_, ghs_, github_pat_, legacy 40-hex) detected by pattern
//
// Even in verbose mode, sensitive values are masked so that logs from a run
// with dozens of pooled tokens can be shared safely. Components that need to
// tell tokens apart log credential.Fingerprint under a neutral key.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("rate limit hit", "fingerprint", credential.Fingerprint(tok))
//
//	// Raw mode: nothing but domains on stdout
//	logger = log.NewDiscardLogger()
package log
