package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polnav/polnav/internal/config"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "polnav",
	Short:   "정부 정책 자격 판단 에이전트 — assess Korean policy eligibility from a user profile",
	Version: version,
	Long: `polnav assesses whether a user is eligible for a Korean government
support policy. It reads a policy document (or a built-in sample), plans which
eligibility conditions are certain or uncertain, asks clarifying questions,
and produces a structured recommendation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sampleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging routes slog to stderr at the configured level, keeping stdout
// clean for assessment output.
func setupLogging(cfg config.Config) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
