package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dshills/reviewgen/internal/config"
	"github.com/dshills/reviewgen/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "reviewgen",
	Short: "Acquire structured code reviews from a language model",
	Long: "reviewgen sends a review prompt to OpenAI or Anthropic and returns a validated " +
		"line-comment payload or a free-form discussion reply.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	// A missing .env is the common case.
	_ = godotenv.Load()

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// newLogger builds the stderr logger for cfg.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reviewgen version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reviewgen version %s\n", version)
	},
}
