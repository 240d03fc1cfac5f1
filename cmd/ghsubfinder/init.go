package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/ghsubfinder/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/ghsubfinder.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new ghsubfinder configuration file",
		Long: `Initialize creates a new .ghsubfinder configuration file in the current directory.

The generated file documents every option with its default value:
- Token sources
- Worker count, page limit, timeouts and token cooldown
- Language qualifiers and noise terms of a full run
- Output format, proxy and run history

Examples:
  # Create .ghsubfinder in current directory
  ghsubfinder init

  # Create config file at a specific path
  ghsubfinder init -o ~/.config/ghsubfinder/config.yaml

  # Force overwrite existing file
  ghsubfinder init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/ghsubfinder.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// 0600: the file may hold tokens.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nAdd your GitHub tokens under 'tokens:' or keep them in a .tokens file,")
	fmt.Fprintln(out, "then run: ghsubfinder scan -d <domain>")

	return nil
}
