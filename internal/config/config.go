// =============================================================================
// publist-tools - Command Options
// =============================================================================
//
// This module holds the options for each publist-tools command. There is no
// configuration file: every option comes from positional arguments or flags
// parsed by cobra in the cmd package, which fills these structs and then
// calls ApplyDefaults (where defined) and Validate before doing any work.
// File paths are used exactly as given.
//
// OPTION SETS:
//   1. MigrateOptions:  `publist-tools migrate`
//   2. GenerateOptions: `publist-tools gen-min-color`
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/publist/publist-tools/internal/mincolor"
	"github.com/publist/publist-tools/pkg/utils"
)

// DefaultHeader is the comment line written above the generated :root block.
const DefaultHeader = "/* Generated by gen-min-color */"

// ErrOutputIsInput is returned when --output would overwrite one of the inputs.
var ErrOutputIsInput = errors.New("output path must differ from the input paths")

// =============================================================================
// MIGRATE OPTIONS
// =============================================================================

// MigrateOptions holds the options for the migrate command.
type MigrateOptions struct {
	// InputPath is the venue configuration to migrate. It is never modified.
	InputPath string

	// OutputPath, when set, receives the migrated document instead of stdout.
	OutputPath string
}

// Validate checks the options for consistency.
func (o *MigrateOptions) Validate() error {
	if o.InputPath == "" {
		return errors.New("input path is required")
	}
	if utils.SameFile(o.InputPath, o.OutputPath) {
		return fmt.Errorf("%w: %s", ErrOutputIsInput, o.OutputPath)
	}
	return nil
}

// =============================================================================
// GENERATE OPTIONS
// =============================================================================

// GenerateOptions holds the options for the gen-min-color command.
type GenerateOptions struct {
	// ThemePath is the full theme: `name:value` lines, or an .xlsx workbook.
	ThemePath string

	// NeededPath lists the custom property names to keep, one per line.
	NeededPath string

	// Order selects the declaration order: "needed" (sorted by name) or
	// "theme" (theme file order).
	// Default: "needed"
	Order string

	// Header is the comment line emitted before `:root {`.
	// Default: DefaultHeader
	Header string

	// OutputPath, when set, receives the stylesheet instead of stdout.
	OutputPath string
}

// ApplyDefaults sets default values for any unset options.
func (o *GenerateOptions) ApplyDefaults() {
	o.Order = strings.ToLower(strings.TrimSpace(o.Order))

	if o.Order == "" {
		o.Order = string(mincolor.OrderNeeded)
	}
	if o.Header == "" {
		o.Header = DefaultHeader
	}
}

// Validate checks the options for consistency.
func (o *GenerateOptions) Validate() error {
	if o.ThemePath == "" {
		return errors.New("theme path is required")
	}
	if o.NeededPath == "" {
		return errors.New("needed-names path is required")
	}

	if _, err := mincolor.ParseOrder(o.Order); err != nil {
		return err
	}

	if strings.ContainsAny(o.Header, "\r\n") {
		return errors.New("header must be a single line")
	}

	for _, in := range []string{o.ThemePath, o.NeededPath} {
		if utils.SameFile(in, o.OutputPath) {
			return fmt.Errorf("%w: %s", ErrOutputIsInput, o.OutputPath)
		}
	}

	return nil
}
