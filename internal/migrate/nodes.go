package migrate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// field is one key/value pair of a mapping node. merged is set when the pair
// was pulled in through a merge key and so also appears elsewhere.
type field struct {
	key    *yaml.Node
	value  *yaml.Node
	merged bool
}

// resolve follows alias nodes to their target.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// lookup returns the index of key in mapping m's Content, or -1.
// Only the mapping's own keys are searched; merge keys are not followed.
func lookup(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return i
		}
	}
	return -1
}

// fields returns the pairs of mapping m with merge keys (<<) flattened.
// Merged fields come first; the mapping's own fields override them in place,
// so a key keeps the position of its first appearance.
func fields(m *yaml.Node) ([]field, error) {
	var merged, own []field

	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if !isMergeKey(k) {
			own = append(own, field{key: k, value: v})
			continue
		}

		sources, err := mergeSources(v)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			fs, err := fields(src)
			if err != nil {
				return nil, err
			}
			for _, f := range fs {
				f.merged = true
				merged = append(merged, f)
			}
		}
	}

	out := make([]field, 0, len(merged)+len(own))
	pos := make(map[string]int, cap(out))
	for _, f := range append(merged, own...) {
		if i, ok := pos[f.key.Value]; ok {
			out[i].value = f.value
			out[i].merged = f.merged
			continue
		}
		pos[f.key.Value] = len(out)
		out = append(out, f)
	}

	return out, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge"
}

// mergeSources returns the mappings named by a merge value in the order they
// are applied. In a sequence the earliest mapping takes precedence, so it is
// applied last.
func mergeSources(v *yaml.Node) ([]*yaml.Node, error) {
	v = resolve(v)
	switch v.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{v}, nil
	case yaml.SequenceNode:
		sources := make([]*yaml.Node, 0, len(v.Content))
		for i := len(v.Content) - 1; i >= 0; i-- {
			m := resolve(v.Content[i])
			if m.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: merge sequence element at line %d is not a mapping", ErrMalformed, m.Line)
			}
			sources = append(sources, m)
		}
		return sources, nil
	default:
		return nil, fmt.Errorf("%w: merge value at line %d is not a mapping", ErrMalformed, v.Line)
	}
}

// containsAlias reports whether any node under n is an alias.
func containsAlias(n *yaml.Node) bool {
	if n.Kind == yaml.AliasNode {
		return true
	}
	for _, c := range n.Content {
		if containsAlias(c) {
			return true
		}
	}
	return false
}

// expand returns n with every alias beneath it replaced by an anchor-free
// copy of its target. Subtrees without aliases are returned unchanged, so
// anchors defined there stay available to later parts of the document.
func expand(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.AliasNode {
		return detach(n.Alias)
	}
	if !containsAlias(n) {
		return n
	}

	c := *n
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = expand(child)
	}
	return &c
}

// detach deep-copies n with aliases expanded and anchors dropped.
func detach(n *yaml.Node) *yaml.Node {
	n = resolve(n)
	c := *n
	c.Anchor = ""
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = detach(child)
		}
	}
	return &c
}

// scalarCopy copies a scalar node without its anchor. Comments are kept only
// when withComments is set.
func scalarCopy(n *yaml.Node, withComments bool) *yaml.Node {
	c := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   n.Tag,
		Value: n.Value,
		Style: n.Style,
	}
	if withComments {
		c.HeadComment = n.HeadComment
		c.LineComment = n.LineComment
		c.FootComment = n.FootComment
	}
	return c
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
