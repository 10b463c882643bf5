// =============================================================================
// publist-tools - Venue Config Migrator
// =============================================================================
//
// This module rewrites a publist instance configuration from the v1 venue
// schema to the v2 schema.
//
// V1 SCHEMA (keyed by category, then by entry key):
//
//   venues:
//     Conferences:
//       osdi20:
//         venue: OSDI
//         year: 2020
//     Workshops:
//       hotos21:
//         venue: HotOS
//         year: 2021
//
// V2 SCHEMA (keyed by venue display name):
//
//   venues:
//     OSDI:
//       category: Conferences
//       occurrences:
//         - key: osdi20
//           year: 2020
//     HotOS:
//       category: Workshops
//       occurrences:
//         - key: hotos21
//           year: 2021
//   version: 2
//
// The document is handled as a yaml.Node tree, so every key outside the venues
// section keeps its position, style and comments, and nothing is re-sorted.
//
// =============================================================================

package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TargetVersion is the schema version written by Migrate.
const TargetVersion = 2

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoVenues is returned when the document has no top-level venues key.
	ErrNoVenues = errors.New("document has no venues section")

	// ErrMissingVenue is returned when an entry has no venue field.
	ErrMissingVenue = errors.New("entry has no venue field")

	// ErrMalformed is returned when part of the venues section has the wrong shape.
	ErrMalformed = errors.New("malformed venues section")

	// ErrAlreadyMigrated is returned when the document is already at TargetVersion.
	ErrAlreadyMigrated = errors.New("document is already at version 2")
)

// ParseError reports a document that is not valid YAML or whose top level is
// not a mapping.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary describes what a migration did.
type Summary struct {
	// Categories is the number of v1 categories read.
	Categories int

	// Entries is the number of v1 entries read, which equals the number of
	// occurrences written.
	Entries int

	// Venues is the number of distinct venues written.
	Venues int

	// Recategorized lists venues found under more than one category. Each
	// keeps the category of its last entry.
	Recategorized []string
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads and parses the configuration at path.
func Load(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, path)
}

// Parse parses data as a single YAML document with a mapping at the top
// level. source names the input in error messages.
func Parse(data []byte, source string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: source, Err: err}
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Path: source, Err: errors.New("empty document")}
	}

	if root := resolve(doc.Content[0]); root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: source, Err: errors.New("top level is not a mapping")}
	}

	return &doc, nil
}

// =============================================================================
// MIGRATION
// =============================================================================

// Migrate rewrites doc in place from the v1 to the v2 venue schema.
//
// Categories are visited in document order and entries within a category in
// document order. Each entry becomes an occurrence of the venue named by its
// venue field: a mapping that starts with `key: <entry key>` followed by the
// entry's other fields. A venue's category is the category of the last entry
// visited for it.
//
// The venues value is replaced where it stands and version is set to 2,
// updating an existing version key in place or appending one. On error doc is
// left untouched.
func Migrate(doc *yaml.Node) (*Summary, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("not a YAML document")
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top level is not a mapping")
	}

	if err := checkVersion(root); err != nil {
		return nil, err
	}

	venuesAt := lookup(root, "venues")
	if venuesAt < 0 {
		return nil, ErrNoVenues
	}

	categories := resolve(root.Content[venuesAt+1])
	if categories.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: venues is not a mapping (line %d)", ErrMalformed, categories.Line)
	}

	summary := &Summary{}
	index := newVenueIndex()

	for i := 0; i+1 < len(categories.Content); i += 2 {
		category := categories.Content[i]
		entries := resolve(categories.Content[i+1])

		if category.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: category key at line %d is not a scalar", ErrMalformed, category.Line)
		}
		if entries.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: category %q is not a mapping", ErrMalformed, category.Value)
		}

		summary.Categories++

		for j := 0; j+1 < len(entries.Content); j += 2 {
			key := entries.Content[j]
			aliased := entries.Content[j+1].Kind == yaml.AliasNode
			entry := resolve(entries.Content[j+1])

			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: entry key at line %d in category %q is not a scalar",
					ErrMalformed, key.Line, category.Value)
			}
			if entry.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: entry %q in category %q is not a mapping",
					ErrMalformed, key.Value, category.Value)
			}

			name, occurrence, err := buildOccurrence(key, entry, aliased)
			if err != nil {
				return nil, fmt.Errorf("entry %q in category %q: %w", key.Value, category.Value, err)
			}

			rec := index.upsert(name, category)
			rec.occurrences = append(rec.occurrences, occurrence)
			summary.Entries++
		}
	}

	root.Content[venuesAt+1] = index.node()
	setVersion(root)

	summary.Venues = index.len()
	summary.Recategorized = index.recategorized()

	return summary, nil
}

// buildOccurrence returns the entry's venue name node and the occurrence
// mapping that replaces the entry: `key: <entry key>` followed by every other
// field of the entry in order. A `key` field in the entry overrides the
// entry key's value in first position.
//
// Nodes that are also emitted elsewhere (the entry is an alias, or the field
// came through a merge key) are deep-copied without anchors so no anchor is
// defined twice in the output.
func buildOccurrence(key, entry *yaml.Node, aliased bool) (*yaml.Node, *yaml.Node, error) {
	fs, err := fields(entry)
	if err != nil {
		return nil, nil, err
	}

	occurrence := &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Style:   entry.Style,
		Content: []*yaml.Node{strNode("key"), scalarCopy(key, true)},
	}

	var name *yaml.Node
	for _, f := range fs {
		if f.key.Kind == yaml.ScalarNode && f.key.Value == "venue" {
			name = resolve(f.value)
			continue
		}
		copyNode := expand
		if aliased || f.merged {
			copyNode = detach
		}
		k, v := copyNode(f.key), copyNode(f.value)
		// An entry's own `key` field replaces the entry key but stays first.
		if f.key.Kind == yaml.ScalarNode && f.key.Value == "key" {
			occurrence.Content[1] = v
			continue
		}
		occurrence.Content = append(occurrence.Content, k, v)
	}

	switch {
	case name == nil || name.ShortTag() == "!!null":
		return nil, nil, ErrMissingVenue
	case name.Kind != yaml.ScalarNode:
		return nil, nil, fmt.Errorf("%w: venue at line %d is not a scalar", ErrMalformed, name.Line)
	}

	return name, occurrence, nil
}

// checkVersion rejects documents whose version is already TargetVersion or
// later.
func checkVersion(root *yaml.Node) error {
	at := lookup(root, "version")
	if at < 0 {
		return nil
	}

	v := resolve(root.Content[at+1])
	if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!int" {
		return nil
	}

	if n, err := strconv.Atoi(v.Value); err == nil && n >= TargetVersion {
		return ErrAlreadyMigrated
	}
	return nil
}

// setVersion sets version to TargetVersion, in place if the key exists.
func setVersion(root *yaml.Node) {
	value := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
		Value: strconv.Itoa(TargetVersion),
	}

	if at := lookup(root, "version"); at >= 0 {
		value.LineComment = root.Content[at+1].LineComment
		root.Content[at+1] = value
		return
	}

	root.Content = append(root.Content, strNode("version"), value)
}

// =============================================================================
// OUTPUT
// =============================================================================

// Encode writes doc as YAML with two-space indentation, keeping key order.
func Encode(w io.Writer, doc *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	return enc.Close()
}

// MigrateFile loads the configuration at path, migrates it and returns the
// complete v2 document. Nothing is returned unless every step succeeds.
func MigrateFile(path string) ([]byte, *Summary, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	summary, err := Migrate(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, nil, err
	}

	return buf.Bytes(), summary, nil
}
