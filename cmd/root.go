// Package cmd wires the desktop engine into the deskdriver command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskdriver/deskdriver/internal/config"
	"github.com/deskdriver/deskdriver/internal/logging"
	"github.com/deskdriver/deskdriver/internal/output"
)

// Build metadata, stamped by the release linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "deskdriver",
	Short: "Drive desktop applications through their accessibility layers",
	Long: `deskdriver reads and controls native desktop UI. It captures
accessibility trees, resolves elements with selectors, and injects
synthetic input on Windows, macOS, and Linux.

Command output goes to stdout as YAML (or JSON with --format json);
logs go to stderr.`,
}

// Execute runs the root command. Errors have already been printed by
// cobra, so only the exit code is left to set.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml or json (default: yaml)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: deskdriver.yaml when present)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level")
	rootCmd.PersistentFlags().Bool("quiet", false, "Drop console logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also log JSON to this rotating file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flags directly to avoid conflicts with
		// subcommand local flags.
		path, _ := rootCmd.PersistentFlags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			cfg.Logging.Level = "debug"
		}
		if quiet, _ := rootCmd.PersistentFlags().GetBool("quiet"); quiet {
			cfg.Logging.Quiet = true
		}
		if file, _ := rootCmd.PersistentFlags().GetString("log-file"); file != "" {
			cfg.Logging.File = file
		}
		logger = logging.New(cfg.Logging)

		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "", "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, _ := rootCmd.PersistentFlags().GetBool("pretty"); pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}
