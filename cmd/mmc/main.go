package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mmc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "mmc",
	Short: "MMC compiler front end",
	Long:  `mmc reads MMC command forms, reserves and checks the items they declare, and reports diagnostics`,
	// ошибки команд печатает cobra, usage только для ошибок флагов
	SilenceUsage:      true,
	PersistentPreRunE: applyColor,
}

// main registers subcommands and persistent flags and runs the root command.
// A failed command exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file (0 = unlimited)")
	rootCmd.PersistentFlags().String("prefix", "", "mangling prefix for generated names (default from mmc.toml or _mmc_)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
