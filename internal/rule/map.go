package rule

import (
	"slices"
)

// Map is the pattern-indexed rule collection.
//
// The zero value is not usable; call NewMap. A Map is built before the
// dispatcher starts and is owned by the dispatcher goroutine afterwards.
type Map struct {
	rules    []Rule
	index    map[string][]int
	wildcard []int
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string][]int)}
}

// FromConfigs builds a Map from already-validated configs, in order.
// The position of each config fixes the index of its rule.
func FromConfigs(cfgs []Config) *Map {
	m := NewMap()
	for _, cfg := range cfgs {
		m.Insert(cfg.Build())
	}
	return m
}

// Insert appends r and indexes it under each of its patterns, or under the
// wildcard set when it has none. Returns the index of the rule.
func (m *Map) Insert(r Rule) int {
	idx := len(m.rules)
	m.rules = append(m.rules, r)

	patterns := r.Patterns()
	if len(patterns) == 0 {
		m.wildcard = append(m.wildcard, idx)
		return idx
	}
	for _, p := range patterns {
		m.index[p] = append(m.index[p], idx)
	}
	return idx
}

// Len returns the number of rules.
func (m *Map) Len() int {
	return len(m.rules)
}

// At returns the rule at index i.
func (m *Map) At(i int) Rule {
	return m.rules[i]
}

// Lookup returns a cursor over every rule subscribed to at least one of
// keys plus every wildcard rule, in ascending index order, each rule once.
// Order and duplication of keys do not affect the result.
func (m *Map) Lookup(keys []string) *Cursor {
	indices := make([]int, 0, len(m.wildcard)+len(keys))
	for _, k := range keys {
		indices = append(indices, m.index[k]...)
	}
	indices = append(indices, m.wildcard...)

	slices.Sort(indices)
	indices = slices.Compact(indices)

	return &Cursor{indices: indices, rules: m.rules}
}

// All returns a cursor over every rule in index order.
func (m *Map) All() *Cursor {
	indices := make([]int, len(m.rules))
	for i := range indices {
		indices[i] = i
	}
	return &Cursor{indices: indices, rules: m.rules}
}

// Subscribers returns the indices subscribed to pattern, excluding
// wildcard rules. The returned slice is a copy.
func (m *Map) Subscribers(pattern string) []int {
	return slices.Clone(m.index[pattern])
}

// Wildcards returns the indices of rules without patterns.
func (m *Map) Wildcards() []int {
	return slices.Clone(m.wildcard)
}
