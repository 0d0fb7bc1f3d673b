package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/getmockd/seedql/pkg/cli/internal/output"
	"github.com/getmockd/seedql/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	logLevel   string
	logFormat  string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seedql",
	Short: "seedql serves seeded GraphQL mocks",
	Long: `seedql serves schema-generated GraphQL responses and overlays registered
seeds onto them, so client teams can build against an API before it exists.

Seeds are partial responses tied to an operation name and matching
arguments. They are registered over HTTP or loaded from seed files.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config, else info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config, else text)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

// newLogger builds the process logger. Flags override the config values.
func newLogger(cmd *cobra.Command, level, format string) *slog.Logger {
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.FromStrings(level, format, cmd.ErrOrStderr())
}

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to stdout. textFn is called only in text mode.
func printResult(cmd *cobra.Command, data any, textFn func()) error {
	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), data)
	}
	textFn()
	return nil
}
