// =============================================================================
// publist-tools - Main Entry Point
// =============================================================================
//
// This is the main entry point for the publist-tools CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   publist-tools migrate <config.yaml>                    - Migrate venues to the v2 schema
//   publist-tools gen-min-color <theme> <needed-names>     - Generate the minimal color stylesheet
//   publist-tools version                                  - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : Cobra command definitions
//   - internal/migrate    : Venue configuration migration (yaml.v3 node tree)
//   - internal/mincolor   : Color subset selection and :root rendering
//   - internal/config     : Command options, defaults and validation
//   - pkg/utils           : Line reading and atomic output
//
// =============================================================================

package main

import (
	"github.com/publist/publist-tools/cmd"
)

func main() {
	cmd.Execute()
}
