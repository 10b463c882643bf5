// =============================================================================
// publist-tools - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (publist-tools)
//   ├── migrateCmd     (publist-tools migrate)
//   ├── genMinColorCmd (publist-tools gen-min-color)
//   └── versionCmd     (publist-tools version)
//
// The root command is responsible for:
//   1. Setting up global flags (--verbose)
//   2. Setting up logging
//   3. Reporting command errors and setting the exit status
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// verbose enables debug logging when set to true.
var verbose bool

// logger writes diagnostics to stderr. It is rebuilt from the global flags
// before every command runs.
var logger = newLogger(os.Stderr, false)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "publist-tools",
	Short: "Maintenance tools for publist sites",
	Long: `publist-tools bundles the one-shot maintenance scripts of a publist site.

Each command reads its input files completely, builds the result in memory and
writes it once, to stdout or to the file named by --output. Nothing is written
when an input cannot be read or parsed.

Example Usage:
  publist-tools migrate _config.publist.yml > publist.v2.yml
  publist-tools gen-min-color all-colors.txt needed-colors.txt -o widget/min-color.scss`,

	// Errors are printed once, by Execute.
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr(), verbose)
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --verbose flag: Enables debug logging on stderr.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// newLogger returns a text logger on w. Timestamps are dropped so that
// repeated runs print identical diagnostics.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
