package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ghsubfinder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghsubfinder",
		Short: "Find subdomains mentioned in public GitHub code",
		Long: `ghsubfinder finds subdomains of a target domain by searching GitHub code for
mentions of it and scanning the raw contents of every matching file.

Searches are spread over a pool of GitHub tokens. A token that hits the rate
limit is set aside for a cooldown and the run continues with the others.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the status mapped from
// the returned error.
func Execute() {
	cmd, err := NewRootCmd().ExecuteC()
	if err != nil {
		os.Exit(reportError(os.Stderr, cmd, err))
	}
}

// reportError prints err to w and returns the exit status for it.
// In raw mode nothing is printed: stdout carries only domains and the
// exit status alone reports the failure.
func reportError(w io.Writer, cmd *cobra.Command, err error) int {
	if !rawMode(cmd) {
		fmt.Fprintln(w, err)
	}
	return exitCode(err)
}

func rawMode(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	raw, err := cmd.Flags().GetBool("raw")
	return err == nil && raw
}
