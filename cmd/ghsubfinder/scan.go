package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/ghsubfinder/internal/config"
	"github.com/nao1215/ghsubfinder/internal/crawler"
	"github.com/nao1215/ghsubfinder/internal/credential"
	"github.com/nao1215/ghsubfinder/internal/database"
	"github.com/nao1215/ghsubfinder/internal/github"
	seclog "github.com/nao1215/ghsubfinder/internal/log"
	"github.com/nao1215/ghsubfinder/internal/model"
	"github.com/nao1215/ghsubfinder/internal/pattern"
	"github.com/nao1215/ghsubfinder/internal/pipeline"
	"github.com/nao1215/ghsubfinder/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search GitHub code for subdomains of a domain",
		Long: `Scan searches GitHub code for the target domain, downloads every matching
file and collects the host names of the target it mentions.

Tokens are read from --tokens, then the GITHUB_TOKEN environment variable,
then the token file (.tokens by default), then the tokens list in the
configuration file. The first source that yields a valid token wins.

Exit status:
  0  success
  1  invalid flags or configuration
  2  no valid GitHub token
  3  every token rate limited and --stop-on-exhaustion set
  4  the output file could not be written
  130  interrupted (partial results were written)

Examples:
  # Standard search, results in example.com.txt
  ghsubfinder scan -d example.com

  # Search for the bare name and match it inside other host names
  ghsubfinder scan -d example.com --extended

  # Only the bare keyword query, print domains as they are found
  ghsubfinder scan -d example.com -q --raw

  # Several tokens, JSON report
  ghsubfinder scan -d example.com -t ghp_aaa...,ghp_bbb... -f json -o out/example.json`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Target and mode
	cmd.Flags().StringP("domain", "d", "", "Target domain (required)")
	cmd.Flags().BoolP("extended", "e", false,
		"Search for the registrable name alone and match it anywhere in a host name")
	cmd.Flags().BoolP("quick", "q", false, "Run only the bare keyword query")
	cmd.Flags().BoolP("stop-on-exhaustion", "k", false,
		"Stop instead of waiting when every token is rate limited")

	// Tokens
	cmd.Flags().StringP("tokens", "t", "", "Comma-separated GitHub tokens")
	cmd.Flags().String("token-file", config.DefaultTokenFile, "File with one GitHub token per line")
	cmd.Flags().String("token-env", config.DefaultTokenEnvVar, "Environment variable holding a GitHub token")
	_ = cmd.Flags().MarkHidden("token-env")

	// Output
	cmd.Flags().StringP("output", "o", "", "Output file (default: <domain>.txt, .json or .md)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: text, json or markdown")
	cmd.Flags().Bool("raw", false, "Print only found domains to stdout, no logging")
	cmd.Flags().Bool("log-json", false, "Write logs to stderr as JSON lines")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ghsubfinder in current or home directory)")

	// Transport and pacing
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().Float64("rps", 0, "Maximum requests per second across all workers (0 = unlimited)")
	cmd.Flags().Int("workers", config.DefaultWorkers, "Concurrent file downloads per result page")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages, "Result pages requested per query")
	cmd.Flags().Duration("cooldown", config.DefaultCooldown, "How long a rate-limited token is set aside")

	// History
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("history-dir", "", "History database directory (default: XDG data directory)")

	// Endpoints, for GitHub Enterprise and tests
	cmd.Flags().String("api-url", github.DefaultAPIBaseURL, "GitHub REST API base URL")
	cmd.Flags().String("raw-url", github.DefaultRawBaseURL, "Raw file content base URL")
	_ = cmd.Flags().MarkHidden("api-url")
	_ = cmd.Flags().MarkHidden("raw-url")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently continue without one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if cfg.Domain, err = flags.GetString("domain"); err != nil {
		return nil, err
	}
	if cfg.Extended, err = flags.GetBool("extended"); err != nil {
		return nil, err
	}
	if cfg.Quick, err = flags.GetBool("quick"); err != nil {
		return nil, err
	}
	if cfg.StopOnExhaustion, err = flags.GetBool("stop-on-exhaustion"); err != nil {
		return nil, err
	}
	if cfg.Raw, err = flags.GetBool("raw"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	tokens, err := flags.GetString("tokens")
	if err != nil {
		return nil, err
	}
	if tokens != "" {
		cfg.Tokens = strings.Split(tokens, ",")
	}

	// Flags below override the configuration file only when given.
	if flags.Changed("token-file") {
		if cfg.TokenFile, err = flags.GetString("token-file"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("token-env") {
		if cfg.TokenEnvVar, err = flags.GetString("token-env"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rps") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cooldown") {
		if cfg.Cooldown, err = flags.GetDuration("cooldown"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("history-dir") {
		if cfg.DBDir, err = flags.GetString("history-dir"); err != nil {
			return nil, err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}

	if cfg.APIBaseURL, err = flags.GetString("api-url"); err != nil {
		return nil, err
	}
	if cfg.RawBaseURL, err = flags.GetString("raw-url"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates the run logger. Raw mode discards everything so that
// stdout and stderr stay clean for piping.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.Raw {
		return seclog.NewDiscardLogger()
	}
	if cfg.LogJSON {
		return seclog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return seclog.NewSecureLogger(w, cfg.Verbose)
}

// runScan executes one discovery run and writes its result.
func runScan(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	pat, err := pattern.Build(cfg.Domain, cfg.Extended)
	if err != nil {
		return fmt.Errorf("invalid domain %q: %w", cfg.Domain, err)
	}
	target := pattern.Join(pattern.Split(cfg.Domain))

	tokens, err := credential.Resolve(credential.Sources{
		List:   strings.Join(cfg.Tokens, ","),
		EnvVar: cfg.TokenEnvVar,
		File:   cfg.TokenFile,
		Extra:  cfg.FileTokens,
	})
	if err != nil {
		return withExitCode(exitNoCredential, err)
	}
	pool := credential.NewPool(tokens)

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = report.DefaultPath(target, format)
	}

	// A typed nil *HistoryDB must not reach the pipeline as a non-nil store.
	var store pipeline.RunStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history disabled, database unavailable", "dir", cfg.DBDir, "error", err)
		} else {
			defer db.Close()
			store = db
		}
	}

	orchestrator := crawler.New(client, pool, crawlerConfig(cfg),
		crawler.WithLogger(logger),
		crawler.WithOnDomain(domainPrinter(cfg.Raw, stdout)),
	)

	p := pipeline.ScanPipeline(orchestrator, pat, store,
		pipeline.NewOutputStep(outputPath, format, getVersion()),
		pipeline.WithLogger(logger),
	)

	runReport := model.NewRunReport(target, cfg.Extended, cfg.Quick)
	if !cfg.Raw {
		fmt.Fprintf(stdout, "Searching GitHub for %s (%s, %d tokens)...\n", pat.Keyword(), runReport.Mode(), pool.Len())
	}

	startTime := time.Now()
	if err := p.Execute(ctx, runReport); err != nil {
		return withExitCode(exitCode(err), err)
	}

	if !cfg.Raw {
		fmt.Fprintf(stdout, "Found %d domains in %s, written to %s\n",
			runReport.DomainCount(), time.Since(startTime).Round(time.Millisecond), runReport.OutputPath)
	}

	switch {
	case runReport.Exhausted:
		return withExitCode(exitExhausted,
			fmt.Errorf("%w: partial results written to %s", crawler.ErrCredentialsExhausted, runReport.OutputPath))
	case runReport.Interrupted:
		return withExitCode(exitInterrupted,
			fmt.Errorf("%w: partial results written to %s", errInterrupted, runReport.OutputPath))
	}

	return nil
}

// newGitHubClient builds the search and fetch client from cfg.
func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	httpClient, err := github.NewHTTPClient(cfg.ProxyAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", cfg.ProxyAddress, err)
	}

	opts := []github.Option{
		github.WithHTTPClient(httpClient),
		github.WithAPIBaseURL(cfg.APIBaseURL),
		github.WithRawBaseURL(cfg.RawBaseURL),
		github.WithSearchTimeout(cfg.SearchTimeout),
		github.WithFetchTimeout(cfg.FetchTimeout),
		github.WithUserAgent(cfg.UserAgent),
		github.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, github.WithRateLimit(cfg.RequestsPerSecond))
	}

	return github.NewClient(opts...), nil
}

// crawlerConfig derives the crawl policy from cfg.
func crawlerConfig(cfg *config.Config) crawler.Config {
	c := crawler.DefaultConfig()
	c.MaxPages = cfg.MaxPages
	c.Workers = cfg.Workers
	c.Cooldown = cfg.Cooldown
	c.StopOnExhaustion = cfg.StopOnExhaustion
	c.Quick = cfg.Quick
	if cfg.Languages != nil {
		c.Languages = cfg.Languages
	}
	if cfg.Noise != nil {
		c.Noise = cfg.Noise
	}
	return c
}

// domainPrinter returns the OnDomain callback. In raw mode each new domain
// is printed to stdout as soon as it is found.
func domainPrinter(raw bool, stdout io.Writer) func(string) {
	if !raw {
		return nil
	}
	var mu sync.Mutex
	return func(domain string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(stdout, domain)
	}
}
