// =============================================================================
// publist-tools - Gen-Min-Color Command
// =============================================================================
//
// This file defines the 'gen-min-color' command, which writes the minimal
// color stylesheet used by the publist widget (widget/min-color.scss).
//
// COMMAND USAGE:
//   publist-tools gen-min-color <full-theme> <needed-names> [flags]
//
// INPUTS:
//   full-theme   : `name:value` lines, or an .xlsx workbook (A=name, B=value).
//                  Extract from the compiled stylesheet with:
//                    rg --no-filename -No -- '--color-[\w-]+:[^};]+' main.css | sort | uniq
//   needed-names : one property name per line. Extract the names still
//                  referenced after removing colors from main.css with:
//                    rg --no-filename -No -- '--color-[\w-]+' main.css | sort | uniq
//
// FLAGS:
//   --order      : "needed" (sorted by name, default) or "theme" (theme order)
//   --header     : Comment line written above the :root block
//   -o, --output : Write the stylesheet to a file instead of stdout
//
// Needed names missing from the theme are reported on stderr and skipped;
// they do not change the exit status.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/publist/publist-tools/internal/config"
	"github.com/publist/publist-tools/internal/mincolor"
	"github.com/publist/publist-tools/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// genOrder selects the declaration order.
var genOrder string

// genHeader is the comment line above the :root block.
var genHeader string

// genOutput is the file that receives the stylesheet.
var genOutput string

// genMinColorCmd represents the 'gen-min-color' command.
var genMinColorCmd = &cobra.Command{
	Use:   "gen-min-color <full-theme> <needed-names>",
	Short: "Generate a minimal :root color stylesheet",
	Long: `The gen-min-color command keeps only the needed custom properties of a full
color theme and prints them as a :root { ... } block.

Theme lines are split at the first colon. A non-blank line without a colon is
an error and nothing is written. Needed names that the theme does not define
are reported on stderr as "<name> not found in theme".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenMinColor(cmd, config.GenerateOptions{
			ThemePath:  args[0],
			NeededPath: args[1],
			Order:      genOrder,
			Header:     genHeader,
			OutputPath: genOutput,
		})
	},
}

func init() {
	rootCmd.AddCommand(genMinColorCmd)

	genMinColorCmd.Flags().StringVar(
		&genOrder,
		"order",
		string(mincolor.OrderNeeded),
		`Declaration order: "needed" (sorted by name) or "theme" (theme file order)`,
	)

	genMinColorCmd.Flags().StringVar(
		&genHeader,
		"header",
		config.DefaultHeader,
		"Comment line written above the :root block",
	)

	genMinColorCmd.Flags().StringVarP(
		&genOutput,
		"output",
		"o",
		"",
		"Write the stylesheet to this file instead of stdout",
	)
}

// runGenMinColor builds the stylesheet, writes it and reports missing names.
func runGenMinColor(cmd *cobra.Command, opts config.GenerateOptions) error {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	order, err := mincolor.ParseOrder(opts.Order)
	if err != nil {
		return err
	}

	logger.Debug("generating minimal color stylesheet",
		"theme", opts.ThemePath,
		"needed", opts.NeededPath,
		"order", order,
	)

	out, res, err := mincolor.Build(opts.ThemePath, opts.NeededPath, order, opts.Header)
	if err != nil {
		return err
	}

	if err := utils.WriteOutput(cmd.OutOrStdout(), opts.OutputPath, out); err != nil {
		return err
	}

	for _, name := range res.Missing {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not found in theme\n", name)
	}

	logger.Debug("stylesheet generated",
		"declarations", len(res.Declarations),
		"missing", len(res.Missing),
	)

	return nil
}
