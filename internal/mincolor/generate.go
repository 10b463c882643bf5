package mincolor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/publist/publist-tools/pkg/utils"
)

// Order selects the order of declarations in the generated block.
type Order string

const (
	// OrderNeeded emits declarations sorted by name. Output does not depend on
	// how either input file is ordered.
	OrderNeeded Order = "needed"

	// OrderTheme emits declarations in theme file order.
	OrderTheme Order = "theme"
)

// ParseOrder converts a flag value to an Order.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderNeeded, OrderTheme:
		return o, nil
	default:
		return "", fmt.Errorf("invalid order %q: must be %q or %q", s, OrderNeeded, OrderTheme)
	}
}

// Needed is the set of property names to keep.
type Needed map[string]struct{}

// ParseNeeded builds a Needed set from lines, ignoring blanks.
func ParseNeeded(lines []string) Needed {
	needed := make(Needed, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			needed[name] = struct{}{}
		}
	}
	return needed
}

// LoadNeeded reads a needed-names file, one name per line.
func LoadNeeded(path string) (Needed, error) {
	lines, err := utils.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load needed names: %w", err)
	}
	return ParseNeeded(lines), nil
}

// Sorted returns the names in lexicographic order.
func (n Needed) Sorted() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declaration is one `name:value;` line of the output.
type Declaration struct {
	Name  string
	Value string
}

// Result is the outcome of Select.
type Result struct {
	// Declarations are the needed names found in the theme, in output order.
	Declarations []Declaration

	// Missing are the needed names absent from the theme, sorted.
	Missing []string
}

// Select keeps the theme entries whose names are needed.
func Select(theme *Theme, needed Needed, order Order) Result {
	var res Result

	sorted := needed.Sorted()
	for _, name := range sorted {
		if _, ok := theme.Lookup(name); !ok {
			res.Missing = append(res.Missing, name)
		}
	}

	names := sorted
	if order == OrderTheme {
		names = theme.Names()
	}

	for _, name := range names {
		if _, ok := needed[name]; !ok {
			continue
		}
		if value, ok := theme.Lookup(name); ok {
			res.Declarations = append(res.Declarations, Declaration{Name: name, Value: value})
		}
	}

	return res
}

// Render writes the stylesheet: header (if any), then a :root block with one
// declaration per line.
func Render(w io.Writer, res Result, header string) error {
	bw := bufio.NewWriter(w)

	if header != "" {
		fmt.Fprintln(bw, header)
	}
	fmt.Fprintln(bw, ":root {")
	for _, d := range res.Declarations {
		fmt.Fprintf(bw, "  %s:%s;\n", d.Name, d.Value)
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}

// Build loads both inputs and renders the complete stylesheet into memory.
// Nothing is returned unless both inputs load cleanly.
func Build(themePath, neededPath string, order Order, header string) ([]byte, Result, error) {
	needed, err := LoadNeeded(neededPath)
	if err != nil {
		return nil, Result{}, err
	}

	theme, err := LoadTheme(themePath)
	if err != nil {
		return nil, Result{}, err
	}

	res := Select(theme, needed, order)

	var buf bytes.Buffer
	if err := Render(&buf, res, header); err != nil {
		return nil, Result{}, err
	}

	return buf.Bytes(), res, nil
}
