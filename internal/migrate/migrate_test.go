package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// pair is one mapping entry in an order-preserving view of a document.
type pair struct {
	Key   string
	Value any
}

// ordered converts n to nested []pair / []any / string values so tests can
// compare documents including key order.
func ordered(n *yaml.Node) any {
	n = resolve(n)
	switch n.Kind {
	case yaml.DocumentNode:
		return ordered(n.Content[0])
	case yaml.MappingNode:
		out := []pair{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			out = append(out, pair{Key: n.Content[i].Value, Value: ordered(n.Content[i+1])})
		}
		return out
	case yaml.SequenceNode:
		out := []any{}
		for _, c := range n.Content {
			out = append(out, ordered(c))
		}
		return out
	default:
		return n.Value
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// migrateString runs the whole file pipeline and re-parses its output.
func migrateString(t *testing.T, content string) (any, *Summary) {
	t.Helper()
	out, summary, err := MigrateFile(writeConfig(t, content))
	require.NoError(t, err)

	doc, err := Parse(out, "output")
	require.NoError(t, err, "output must be valid YAML:\n%s", out)

	// Node parsing accepts duplicate mapping keys; decoding does not.
	var plain any
	require.NoError(t, yaml.Unmarshal(out, &plain), "output must decode:\n%s", out)

	return ordered(doc), summary
}

func TestMigrateFile_SingleEntry(t *testing.T) {
	input := `venues:
  Conferences:
    a:
      venue: X
      year: 2020
`
	want := `venues:
  X:
    category: Conferences
    occurrences:
      - key: a
        year: 2020
version: 2
`
	out, summary, err := MigrateFile(writeConfig(t, input))
	require.NoError(t, err)

	assert.Equal(t, want, string(out))
	assert.Equal(t, &Summary{Categories: 1, Entries: 1, Venues: 1}, summary)
}

func TestMigrate_PreservesOtherKeysAndOrder(t *testing.T) {
	input := `# publist instance options
pub_dir: assets
highlight_authors:
  - Jane Doe
venues:
  Conferences:
    osdi20:
      venue: OSDI
      year: 2020
      role: PC
    sosp19:
      venue: SOSP
      year: 2019
  Workshops:
    hotos21:
      year: 2021
      venue: HotOS
show_unpublished: false
`
	got, _ := migrateString(t, input)

	want := []pair{
		{"pub_dir", "assets"},
		{"highlight_authors", []any{"Jane Doe"}},
		{"venues", []pair{
			{"OSDI", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "osdi20"}, {"year", "2020"}, {"role", "PC"}},
				}},
			}},
			{"SOSP", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "sosp19"}, {"year", "2019"}},
				}},
			}},
			{"HotOS", []pair{
				{"category", "Workshops"},
				{"occurrences", []any{
					[]pair{{"key", "hotos21"}, {"year", "2021"}},
				}},
			}},
		}},
		{"show_unpublished", "false"},
		{"version", "2"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrate_LastCategoryWins(t *testing.T) {
	input := `venues:
  Journals:
    tocs19:
      venue: ACM TOCS
      year: 2019
  Conferences:
    osdi20:
      venue: OSDI
      year: 2020
  Magazines:
    tocs20:
      venue: ACM TOCS
      year: 2020
`
	got, summary := migrateString(t, input)

	want := []pair{
		{"venues", []pair{
			{"ACM TOCS", []pair{
				{"category", "Magazines"},
				{"occurrences", []any{
					[]pair{{"key", "tocs19"}, {"year", "2019"}},
					[]pair{{"key", "tocs20"}, {"year", "2020"}},
				}},
			}},
			{"OSDI", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "osdi20"}, {"year", "2020"}},
				}},
			}},
		}},
		{"version", "2"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, summary.Categories)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 2, summary.Venues)
	assert.Equal(t, []string{"ACM TOCS"}, summary.Recategorized)
}

func TestMigrate_SameVenueSameCategoryIsNotRecategorized(t *testing.T) {
	input := `venues:
  Conferences:
    osdi20: {venue: OSDI, year: 2020}
    osdi22: {venue: OSDI, year: 2022}
`
	_, summary := migrateString(t, input)
	assert.Equal(t, 1, summary.Venues)
	assert.Empty(t, summary.Recategorized)
}

func TestMigrate_VenueNamesCompareByText(t *testing.T) {
	input := `venues:
  Conferences:
    a: {venue: 2020}
  Workshops:
    b: {venue: "2020"}
`
	got, summary := migrateString(t, input)

	want := []pair{
		{"venues", []pair{
			{"2020", []pair{
				{"category", "Workshops"},
				{"occurrences", []any{
					[]pair{{"key", "a"}},
					[]pair{{"key", "b"}},
				}},
			}},
		}},
		{"version", "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, summary.Venues)
	assert.Equal(t, []string{"2020"}, summary.Recategorized)
}

func TestMigrate_VenueCounts(t *testing.T) {
	var b strings.Builder
	b.WriteString("venues:\n")
	for c := 0; c < 3; c++ {
		fmt.Fprintf(&b, "  cat%d:\n", c)
		for e := 0; e < 4; e++ {
			// Venue v0..v4 spread across categories.
			fmt.Fprintf(&b, "    k%d_%d:\n      venue: v%d\n      n: %d\n", c, e, (c*4+e)%5, e)
		}
	}

	out, summary, err := MigrateFile(writeConfig(t, b.String()))
	require.NoError(t, err)

	var decoded struct {
		Venues map[string]struct {
			Category    string           `yaml:"category"`
			Occurrences []map[string]any `yaml:"occurrences"`
		} `yaml:"venues"`
		Version int `yaml:"version"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	assert.Equal(t, 2, decoded.Version)
	assert.Len(t, decoded.Venues, 5)
	assert.Equal(t, 5, summary.Venues)

	total := 0
	for name, rec := range decoded.Venues {
		total += len(rec.Occurrences)
		for _, occ := range rec.Occurrences {
			assert.NotContains(t, occ, "venue", "venue %s", name)
			assert.Contains(t, occ, "key")
		}
	}
	assert.Equal(t, 12, total)
	assert.Equal(t, 12, summary.Entries)
}

func TestMigrate_ExistingVersionUpdatedInPlace(t *testing.T) {
	input := `version: 1
venues:
  Conferences:
    a: {venue: X}
title: T
`
	got, _ := migrateString(t, input)

	want := []pair{
		{"version", "2"},
		{"venues", []pair{
			{"X", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{[]pair{{"key", "a"}}}},
			}},
		}},
		{"title", "T"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrate_EmptyVenues(t *testing.T) {
	got, summary := migrateString(t, "venues: {}\n")

	want := []pair{
		{"venues", []pair{}},
		{"version", "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, summary.Venues)
}

func TestMigrate_NonStringKeysKeepTheirType(t *testing.T) {
	input := `venues:
  2020:
    2021:
      venue: X
`
	out, _, err := MigrateFile(writeConfig(t, input))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	venues := decoded["venues"].(map[string]any)
	x := venues["X"].(map[string]any)
	assert.Equal(t, 2020, x["category"])

	occ := x["occurrences"].([]any)[0].(map[string]any)
	assert.Equal(t, 2021, occ["key"])
}

func TestMigrate_EntryKeyField(t *testing.T) {
	occurrences := func(got any) any {
		doc := got.([]pair)
		venues := doc[len(doc)-2].Value.([]pair)
		return venues[0].Value.([]pair)[1].Value
	}

	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name: "overrides entry key",
			input: `venues:
  C:
    a:
      venue: X
      year: 2020
      key: other
`,
			want: []any{[]pair{{"key", "other"}, {"year", "2020"}}},
		},
		{
			name: "listed first",
			input: `venues:
  C:
    a:
      key: other
      year: 2020
      venue: X
`,
			want: []any{[]pair{{"key", "other"}, {"year", "2020"}}},
		},
		{
			name: "from merge key",
			input: `base: &base
  key: shared
  year: 2019
venues:
  C:
    a:
      <<: *base
      venue: X
    b:
      <<: *base
      venue: X
      key: own
`,
			want: []any{
				[]pair{{"key", "shared"}, {"year", "2019"}},
				[]pair{{"key", "own"}, {"year", "2019"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, summary := migrateString(t, tt.input)
			if diff := cmp.Diff(tt.want, occurrences(got)); diff != "" {
				t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, summary.Venues)
		})
	}

	t.Run("single key in output", func(t *testing.T) {
		input := "venues:\n  C:\n    a: {venue: X, key: other}\n"
		out, _, err := MigrateFile(writeConfig(t, input))
		require.NoError(t, err)

		assert.Equal(t, 1, strings.Count(string(out), "key:"))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(out, &decoded))
	})
}

func TestMigrate_AliasesAndMergeKeys(t *testing.T) {
	input := `defaults: &defaults
  venue: OSDI
  role: PC
venues:
  Conferences:
    osdi20:
      <<: *defaults
      year: 2020
    osdi21:
      <<: *defaults
      role: Chair
      year: 2021
    ref: &shared
      venue: SOSP
      tags: &tags [systems]
    again: *shared
    tagged:
      venue: EuroSys
      tags: *tags
`
	got, summary := migrateString(t, input)

	want := []pair{
		{"defaults", []pair{{"venue", "OSDI"}, {"role", "PC"}}},
		{"venues", []pair{
			{"OSDI", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "osdi20"}, {"role", "PC"}, {"year", "2020"}},
					[]pair{{"key", "osdi21"}, {"role", "Chair"}, {"year", "2021"}},
				}},
			}},
			{"SOSP", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "ref"}, {"tags", []any{"systems"}}},
					[]pair{{"key", "again"}, {"tags", []any{"systems"}}},
				}},
			}},
			{"EuroSys", []pair{
				{"category", "Conferences"},
				{"occurrences", []any{
					[]pair{{"key", "tagged"}, {"tags", []any{"systems"}}},
				}},
			}},
		}},
		{"version", "2"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("migrated document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, summary.Entries)
}

func TestMigrate_MergeSequencePrecedence(t *testing.T) {
	input := `a: &a {venue: A, x: 1}
b: &b {venue: B, x: 2, y: 3}
venues:
  C:
    k:
      <<: [*a, *b]
`
	got, _ := migrateString(t, input)

	venues := got.([]pair)[2].Value.([]pair)
	require.Len(t, venues, 1)
	assert.Equal(t, "A", venues[0].Key, "earlier merge source takes precedence")

	occurrences := venues[0].Value.([]pair)[1].Value.([]any)
	assert.Equal(t, []pair{{"key", "k"}, {"x", "1"}, {"y", "3"}}, occurrences[0])
}

func TestMigrate_KeepsComments(t *testing.T) {
	input := `# site options
title: Papers # shown in header
venues:
  Conferences:
    a:
      venue: X
`
	out, _, err := MigrateFile(writeConfig(t, input))
	require.NoError(t, err)

	assert.Contains(t, string(out), "# site options")
	assert.Contains(t, string(out), "# shown in header")
}

func TestMigrate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no venues",
			input:   "title: T\n",
			wantErr: ErrNoVenues,
		},
		{
			name:    "entry without venue",
			input:   "venues:\n  C:\n    a:\n      year: 2020\n",
			wantErr: ErrMissingVenue,
			wantMsg: `entry "a" in category "C"`,
		},
		{
			name:    "null venue",
			input:   "venues:\n  C:\n    a:\n      venue: ~\n",
			wantErr: ErrMissingVenue,
		},
		{
			name:    "venue is a list",
			input:   "venues:\n  C:\n    a:\n      venue: [x]\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "venues is a list",
			input:   "venues:\n  - a\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "venues is null",
			input:   "venues:\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "category is a scalar",
			input:   "venues:\n  C: nope\n",
			wantErr: ErrMalformed,
			wantMsg: `category "C"`,
		},
		{
			name:    "entry is a scalar",
			input:   "venues:\n  C:\n    a: OSDI\n",
			wantErr: ErrMalformed,
			wantMsg: `entry "a"`,
		},
		{
			name:    "merge of a scalar",
			input:   "x: &x 1\nvenues:\n  C:\n    a:\n      <<: *x\n      venue: V\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "already migrated",
			input:   "version: 2\nvenues:\n  X:\n    category: C\n    occurrences: []\n",
			wantErr: ErrAlreadyMigrated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input), "test")
			require.NoError(t, err)

			before := ordered(doc)

			_, err = Migrate(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}

			assert.Equal(t, before, ordered(doc), "document must be unchanged on error")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"invalid yaml", "venues: [unclosed\n", "failed to parse"},
		{"empty", "", "empty document"},
		{"list", "- a\n- b\n", "top level is not a mapping"},
		{"scalar", "hello\n", "top level is not a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "in.yaml")
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "in.yaml", perr.Path)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMigrateFile_MissingFile(t *testing.T) {
	out, _, err := MigrateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, out)
}

func TestMigrateFile_DoesNotModifyInput(t *testing.T) {
	input := "venues:\n  C:\n    a: {venue: X}\n"
	path := writeConfig(t, input)

	_, _, err := MigrateFile(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, input, string(data))
}

func TestMigrateFile_Deterministic(t *testing.T) {
	input := `venues:
  B: {x: {venue: Z}, y: {venue: A}}
  A: {z: {venue: M}, w: {venue: Z}}
`
	path := writeConfig(t, input)

	first, _, err := MigrateFile(path)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _, err := MigrateFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, again))
	}
}
