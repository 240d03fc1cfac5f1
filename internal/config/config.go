package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeouts, worker count and cooldown follow what the GitHub code search
// API tolerates for a single authenticated client.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ghsubfinder"

	// DefaultFormat writes one domain per line.
	DefaultFormat = "text"

	// DefaultWorkers is the number of raw-file fetches in flight per page.
	DefaultWorkers = 30

	// DefaultMaxPages is the number of result pages requested per query.
	// Code search never returns more than 1000 results (10 pages of 100).
	DefaultMaxPages = 10

	// DefaultSearchTimeout bounds one code search request.
	DefaultSearchTimeout = 7500 * time.Millisecond

	// DefaultFetchTimeout bounds one raw file request.
	DefaultFetchTimeout = 7500 * time.Millisecond

	// DefaultCooldown is how long a rate-limited token is set aside.
	// The secondary search limit resets on a one minute window.
	DefaultCooldown = 61 * time.Second

	// DefaultUserAgent identifies ghsubfinder in HTTP requests.
	DefaultUserAgent = "ghsubfinder (+https://github.com/nao1215/ghsubfinder)"

	// DefaultMaxBodySize limits how much of a raw file is scanned.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTokenEnvVar is the environment variable consulted for tokens.
	DefaultTokenEnvVar = "GITHUB_TOKEN"

	// DefaultTokenFile is the token file consulted when no other source
	// provides a token.
	DefaultTokenFile = ".tokens"
)

// Config holds all configuration options for a ghsubfinder run.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OutputConfig) for simplicity. The number of options
// is manageable and every consumer reads only a handful of fields.
type Config struct {
	// Domain is the target domain, e.g. "example.com" or "api.example.com".
	Domain string

	// Tokens are tokens given directly, before validation and dedupe.
	Tokens []string

	// TokenFile is a file with one token per line.
	TokenFile string

	// TokenEnvVar names the environment variable holding tokens.
	TokenEnvVar string

	// FileTokens are the tokens listed in the config file. They are the
	// last source consulted.
	FileTokens []string

	// OutputPath is where the result is written. Empty means
	// "<domain>.<ext>" in the current directory.
	OutputPath string

	// Format is one of "text", "json" or "markdown".
	Format string

	// Extended searches for the registrable name alone and matches it
	// anywhere inside a host name.
	Extended bool

	// Quick runs only the bare keyword query.
	Quick bool

	// StopOnExhaustion ends the run as soon as every token is cooling down
	// instead of waiting for one to come back.
	StopOnExhaustion bool

	// Raw suppresses all logging and prints each new domain to stdout.
	Raw bool

	// Verbose enables slog.LevelDebug.
	Verbose bool

	// LogJSON writes logs as JSON lines instead of text.
	LogJSON bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// RequestsPerSecond caps outgoing requests across all workers.
	// Zero means unlimited.
	RequestsPerSecond float64

	// Workers is the number of concurrent raw fetches per page.
	Workers int

	// MaxPages is the number of search pages requested per query.
	MaxPages int

	// SearchTimeout bounds one search request.
	SearchTimeout time.Duration

	// FetchTimeout bounds one raw file request.
	FetchTimeout time.Duration

	// Cooldown is how long a rate-limited token is disabled.
	Cooldown time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of bytes read from a raw file.
	MaxBodySize int64

	// Languages are the language qualifiers of a full run. Nil means the
	// built-in list.
	Languages []string

	// Noise are the extra search terms of a full run. Nil means the
	// built-in list.
	Noise []string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory (~/.local/share/ghsubfinder on Linux).
	DBDir string

	// SaveToDB records each run in the history database.
	SaveToDB bool

	// APIBaseURL overrides the GitHub REST endpoint (GitHub Enterprise, tests).
	APIBaseURL string

	// RawBaseURL overrides the raw content endpoint.
	RawBaseURL string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		TokenFile:     DefaultTokenFile,
		TokenEnvVar:   DefaultTokenEnvVar,
		Format:        DefaultFormat,
		Workers:       DefaultWorkers,
		MaxPages:      DefaultMaxPages,
		SearchTimeout: DefaultSearchTimeout,
		FetchTimeout:  DefaultFetchTimeout,
		Cooldown:      DefaultCooldown,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for ghsubfinder.
// On Linux: ~/.local/share/ghsubfinder
// On macOS: ~/Library/Application Support/ghsubfinder
// On Windows: %LOCALAPPDATA%\ghsubfinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ghsubfinder.
// On Linux: ~/.config/ghsubfinder
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after flags and the config file are merged.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return ErrNoDomain
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.SearchTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Cooldown < 0 {
		return ErrInvalidCooldown
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
