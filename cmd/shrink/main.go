package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shrinker/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "shrink",
	Short: "Whole-program resolution and rewriting toolkit",
	Long: `shrink loads a textual program model, answers resolution and dispatch
queries against it and applies lens steps the way a bytecode shrinker does`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareRun,
	PersistentPostRun: finishRun,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(lensCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to shrink.toml (default: nearest one above the working directory)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 0, "maximum number of diagnostics to show (default from config)")
	flags.Int("jobs", 0, "worker goroutines (default from config)")

	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage (stream|ring|both)")
	flags.String("trace-format", "", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 0, "events kept in the trace ring")
	flags.Duration("trace-heartbeat", 0, "heartbeat interval, 0 disables")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
