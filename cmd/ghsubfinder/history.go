package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/ghsubfinder/internal/config"
	"github.com/nao1215/ghsubfinder/internal/database"
	"github.com/nao1215/ghsubfinder/internal/model"
	"github.com/nao1215/ghsubfinder/internal/pattern"
	"github.com/nao1215/ghsubfinder/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists recorded runs and compares the domains two runs found.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "List past runs and compare their results",
		Long: `History shows the runs recorded by 'ghsubfinder scan'.

Without arguments it lists every target with recorded runs. With a domain it
lists that target's runs, newest first. With --diff it compares two runs of
the target and shows which domains appeared and which disappeared.

Examples:
  # List every recorded target
  ghsubfinder history

  # List runs for a target
  ghsubfinder history example.com

  # Compare the latest two runs
  ghsubfinder history example.com --diff

  # Compare two specific runs as Markdown
  ghsubfinder history --diff --base 3 --head 7 -f markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("diff", "D", false, "Compare two runs")
	cmd.Flags().Int64("base", 0, "Older run ID to compare (default: second latest run)")
	cmd.Flags().Int64("head", 0, "Newer run ID to compare (default: latest run)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 = all)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Diff output format: text, json or markdown")
	cmd.Flags().String("history-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	target  string
	diff    bool
	baseID  int64
	headID  int64
	limit   int
	format  report.Format
	dbDir   string
	version string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	// Validate arguments before opening database.
	// This prevents creating an empty database for a usage error.
	if opts.diff && opts.target == "" && (opts.baseID == 0 || opts.headID == 0) {
		return fmt.Errorf("--diff needs a domain, or both --base and --head")
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.diff:
		return showDiff(ctx, out, db, opts)
	case opts.target != "":
		return listRuns(ctx, out, db, opts.target, opts.limit)
	default:
		return listTargets(ctx, out, db)
	}
}

func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{
		dbDir:   config.XDGDataDir(),
		version: getVersion(),
	}

	if len(args) > 0 {
		if _, err := pattern.Build(args[0], false); err != nil {
			return nil, fmt.Errorf("invalid domain %q: %w", args[0], err)
		}
		opts.target = pattern.Join(pattern.Split(args[0]))
	}

	var err error
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return nil, err
	}
	if opts.baseID, err = flags.GetInt64("base"); err != nil {
		return nil, err
	}
	if opts.headID, err = flags.GetInt64("head"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}

	formatName, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	if opts.format, err = report.ParseFormat(formatName); err != nil {
		return nil, err
	}

	dir, err := flags.GetString("history-dir")
	if err != nil {
		return nil, err
	}
	if dir != "" {
		opts.dbDir = dir
	}

	return opts, nil
}

// listTargets lists every target that has recorded runs.
func listTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'ghsubfinder scan -d <domain>' to run a search.")
		return nil
	}

	fmt.Fprintf(out, "Recorded targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'ghsubfinder history <domain>' to see the runs for a target.")

	return nil
}

// listRuns lists the runs recorded for target, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, target string, limit int) error {
	n := limit
	if n <= 0 {
		n = -1
	}
	runs, err := db.LatestRuns(ctx, target, n)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s\n", target)
		return nil
	}

	fmt.Fprintf(out, "Runs for %s (%d shown):\n\n", target, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-16s  %8s  %s\n", "ID", "Started", "Mode", "Domains", "Duration")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 68))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-16s  %8d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runMode(run),
			run.DomainCount,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
		)
	}

	return nil
}

// showDiff compares two runs and writes the result in the chosen format.
func showDiff(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *historyOptions) error {
	baseID, headID := opts.baseID, opts.headID

	if baseID == 0 || headID == 0 {
		latest, err := db.LatestRuns(ctx, opts.target, 2)
		if err != nil {
			return fmt.Errorf("failed to get run history: %w", err)
		}
		if len(latest) < 2 {
			return fmt.Errorf("need at least two runs of %s to compare, found %d", opts.target, len(latest))
		}
		if headID == 0 {
			headID = latest[0].ID
		}
		if baseID == 0 {
			baseID = latest[1].ID
		}
	}

	diff, err := db.Diff(ctx, baseID, headID)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	w, err := report.NewWriter(opts.format, out, opts.version)
	if err != nil {
		return err
	}
	_, err = w.WriteDiff(diff)
	return err
}

func runMode(run model.RunSummary) string {
	mode := "standard"
	if run.Extended {
		mode = "extended"
	}
	if run.Quick {
		mode += ", quick"
	}
	return mode
}
