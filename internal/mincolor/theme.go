// Package mincolor builds a minimal CSS custom-property stylesheet from a
// full color theme and the list of property names a site actually uses.
package mincolor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/publist/publist-tools/pkg/utils"
)

var (
	// ErrNoSeparator is returned for a theme line without a ':' separator.
	ErrNoSeparator = errors.New("missing ':' separator")

	// ErrEmptyName is returned for a theme line whose name is blank.
	ErrEmptyName = errors.New("empty property name")

	// ErrMissingValue is returned for a spreadsheet row with a name but no value.
	ErrMissingValue = errors.New("missing property value")
)

// ParseError reports a malformed theme line or row. Line is 1-based.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Path, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Theme maps custom property names to values. Names keep the order of their
// first appearance; a repeated name takes the last value given.
type Theme struct {
	// Source is the file the theme was read from.
	Source string

	names  []string
	values map[string]string
}

// NewTheme returns an empty theme.
func NewTheme(source string) *Theme {
	return &Theme{Source: source, values: make(map[string]string)}
}

// Set assigns value to name.
func (t *Theme) Set(name, value string) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = value
}

// Lookup returns the value for name.
func (t *Theme) Lookup(name string) (string, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Names returns the theme's names in order of first appearance.
func (t *Theme) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of distinct names.
func (t *Theme) Len() int {
	return len(t.names)
}

// LoadTheme reads a theme file. Files ending in .xlsx are read as a
// spreadsheet (see ReadSpreadsheet); anything else as `name:value` lines.
func LoadTheme(path string) (*Theme, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadSpreadsheet(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open theme: %w", err)
	}
	defer file.Close()

	return ParseTheme(file, path)
}

// ParseTheme reads `name:value` lines, as produced by
//
//	rg --no-filename -No -- '--color-[\w-]+:[^};]+' main.css | sort | uniq
//
// Each line is split at its first colon and both halves are trimmed, so values
// may themselves contain colons. Blank lines are skipped. Any other line
// without a colon, or with an empty name, fails the whole parse.
func ParseTheme(r io.Reader, source string) (*Theme, error) {
	lines, err := utils.ScanLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme %s: %w", source, err)
	}

	theme := NewTheme(source)
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &ParseError{Path: source, Line: i + 1, Text: line, Err: ErrNoSeparator}
		}

		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &ParseError{Path: source, Line: i + 1, Text: line, Err: ErrEmptyName}
		}

		theme.Set(name, strings.TrimSpace(value))
	}

	return theme, nil
}
