// =============================================================================
// publist-tools - Migrate Command
// =============================================================================
//
// This file defines the 'migrate' command, which converts a publist venue
// configuration from the v1 schema (categories -> entries) to the v2 schema
// (venues -> occurrences) and sets version: 2.
//
// COMMAND USAGE:
//   publist-tools migrate <config.yaml> [flags]
//
// FLAGS:
//   -o, --output : Write the migrated document to a file instead of stdout
//
// The input file is never modified.
//
// =============================================================================

package cmd

import (
	"github.com/publist/publist-tools/internal/config"
	"github.com/publist/publist-tools/internal/migrate"
	"github.com/publist/publist-tools/pkg/utils"
	"github.com/spf13/cobra"
)

// migrateOutput is the file that receives the migrated document.
var migrateOutput string

// migrateCmd represents the 'migrate' command.
var migrateCmd = &cobra.Command{
	Use:   "migrate <config.yaml>",
	Short: "Migrate a venue configuration to the v2 schema",
	Long: `The migrate command regroups the venues section of a publist configuration
by venue name and sets version: 2.

Every entry becomes an occurrence of the venue named by its venue field. The
occurrence keeps the entry's key and all of its other fields in their original
order. When a venue appears under several categories, the category of the last
entry wins.

All other keys of the document are kept in place, with their comments.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, config.MigrateOptions{
			InputPath:  args[0],
			OutputPath: migrateOutput,
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVarP(
		&migrateOutput,
		"output",
		"o",
		"",
		"Write the migrated document to this file instead of stdout",
	)
}

// runMigrate migrates the configuration and writes the result.
func runMigrate(cmd *cobra.Command, opts config.MigrateOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	logger.Debug("migrating venue configuration", "path", opts.InputPath)

	out, summary, err := migrate.MigrateFile(opts.InputPath)
	if err != nil {
		return err
	}

	for _, venue := range summary.Recategorized {
		logger.Info("venue listed under several categories, keeping the last", "venue", venue)
	}
	logger.Debug("migration complete",
		"categories", summary.Categories,
		"entries", summary.Entries,
		"venues", summary.Venues,
	)

	return utils.WriteOutput(cmd.OutOrStdout(), opts.OutputPath, out)
}
