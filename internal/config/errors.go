package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoDomain is returned when no target domain is specified.
	ErrNoDomain = errors.New("no domain specified: use --domain")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when a request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCooldown is returned when the token cooldown is negative.
	ErrInvalidCooldown = errors.New("invalid cooldown: must be non-negative")

	// ErrInvalidRequestRate is returned when --rps is negative.
	// Use 0 for no limit.
	ErrInvalidRequestRate = errors.New("invalid requests per second: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoDBDir is returned when history is enabled without a directory.
	ErrNoDBDir = errors.New("history enabled but no database directory set")
)
