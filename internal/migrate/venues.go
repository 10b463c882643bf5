package migrate

import (
	"gopkg.in/yaml.v3"
)

// venueRecord collects every occurrence of one venue.
type venueRecord struct {
	// name is the key node emitted for the venue in the v2 document.
	name *yaml.Node

	// category is the category key of the last entry processed for the venue.
	category *yaml.Node

	// recategorized is set once the venue has been seen under two different
	// categories.
	recategorized bool

	occurrences []*yaml.Node
}

// venueIndex is an insertion-ordered map from venue name to its record.
//
// Venue names are compared by their scalar text. When a venue shows up again
// under another category, the record's category is overwritten: the category
// of the last entry processed wins. Records keep the position of the venue's
// first appearance.
type venueIndex struct {
	order  []string
	byName map[string]*venueRecord
}

func newVenueIndex() *venueIndex {
	return &venueIndex{byName: make(map[string]*venueRecord)}
}

// upsert returns the record for name, creating it if needed, and assigns it
// category.
func (ix *venueIndex) upsert(name, category *yaml.Node) *venueRecord {
	rec, ok := ix.byName[name.Value]
	if !ok {
		rec = &venueRecord{name: scalarCopy(name, false)}
		ix.byName[name.Value] = rec
		ix.order = append(ix.order, name.Value)
	} else if rec.category.Value != category.Value {
		rec.recategorized = true
	}

	rec.category = category
	return rec
}

// len returns the number of distinct venues.
func (ix *venueIndex) len() int {
	return len(ix.order)
}

// recategorized lists, in index order, the venues that appeared under more
// than one category.
func (ix *venueIndex) recategorized() []string {
	var names []string
	for _, name := range ix.order {
		if ix.byName[name].recategorized {
			names = append(names, name)
		}
	}
	return names
}

// node renders the index as the v2 venues mapping:
//
//	<venue>:
//	  category: <category>
//	  occurrences:
//	    - key: <entry key>
//	      <entry fields>...
func (ix *venueIndex) node() *yaml.Node {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, name := range ix.order {
		rec := ix.byName[name]

		occurrences := &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     "!!seq",
			Content: rec.occurrences,
		}

		record := &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				strNode("category"), scalarCopy(rec.category, false),
				strNode("occurrences"), occurrences,
			},
		}

		out.Content = append(out.Content, rec.name, record)
	}

	return out
}
