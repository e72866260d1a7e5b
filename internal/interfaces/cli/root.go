// Package cli implements the figurelens command tree: a long-running API
// server plus offline commands for feature extraction, text analysis and
// one-shot recognition.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/FigureLens/internal/config"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "figurelens",
		Short: "Multi-modal toy figure recognition engine",
		Long: `FigureLens matches candidate figures against a reference catalog using
visual features, free-text descriptions, or both.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newRecognizeCommand(opts),
		newExtractCommand(opts),
		newAnalyzeCommand(opts),
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration, honoring the --config flag and the
// FIGLENS_* environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// buildLogger constructs the process logger from config.
func buildLogger(cfg *config.Config) (logging.Logger, error) {
	lcfg := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}
	if cfg.Log.Output != "" {
		lcfg.OutputPaths = []string{cfg.Log.Output}
	}
	return logging.NewLogger(lcfg)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
