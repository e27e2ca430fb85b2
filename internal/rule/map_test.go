package rule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/correlate/internal/ir"
)

// stubRule is a pattern-only rule for lookup tests.
type stubRule struct {
	id       string
	patterns []string
}

func (r *stubRule) ID() string                            { return r.id }
func (r *stubRule) Patterns() []string                    { return r.patterns }
func (r *stubRule) OnMessage(*ir.Message) []ir.ExecResult { return nil }
func (r *stubRule) OnTimer(ir.TimerEvent) []ir.ExecResult { return nil }

func stub(id string, patterns ...string) *stubRule {
	return &stubRule{id: id, patterns: patterns}
}

func ids(c *Cursor) []string {
	var out []string
	for {
		r, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, r.ID())
	}
}

func TestLookup_RuleMatchedByTwoPatternsYieldedOnce(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A", "A", "B"))

	c := m.Lookup([]string{"A", "B"})

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"A"}, ids(c))
}

func TestLookup_WildcardMatchesUnrelatedKey(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A"))

	c := m.Lookup([]string{"WHATEVER"})

	assert.Equal(t, 1, c.Len())
}

func TestLookup_WildcardMatchesEmptyKeys(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A"))

	assert.Equal(t, 1, m.Lookup(nil).Len())
	assert.Equal(t, 1, m.Lookup([]string{}).Len())
}

func TestLookup_AscendingIndexOrder(t *testing.T) {
	m := NewMap()
	m.Insert(stub("B", "X"))
	m.Insert(stub("C"))

	assert.Equal(t, []string{"B", "C"}, ids(m.Lookup([]string{"X"})))
}

func TestLookup_OrderIndependentOfKeyOrder(t *testing.T) {
	m := NewMap()
	m.Insert(stub("r0", "z"))
	m.Insert(stub("r1", "y"))
	m.Insert(stub("r2", "x"))
	m.Insert(stub("r3"))

	forward := m.Lookup([]string{"x", "y", "z"}).Indices()
	backward := m.Lookup([]string{"z", "y", "x"}).Indices()

	assert.Equal(t, []int{0, 1, 2, 3}, forward)
	assert.Equal(t, forward, backward)
}

func TestLookup_RepeatedKeysDoNotDuplicate(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A", "k", "k"))
	m.Insert(stub("B", "k"))

	c := m.Lookup([]string{"k", "k", "k"})

	assert.Equal(t, []string{"A", "B"}, ids(c))
}

func TestLookup_OverlappingPatternsAtMostOnce(t *testing.T) {
	m := NewMap()
	m.Insert(stub("r0", "a", "b", "c"))
	m.Insert(stub("r1", "b", "c", "d"))
	m.Insert(stub("r2", "c"))
	m.Insert(stub("r3"))

	c := m.Lookup([]string{"a", "b", "c", "d", "c", "b"})

	seen := map[string]int{}
	for _, id := range ids(c) {
		seen[id]++
	}
	assert.Equal(t, map[string]int{"r0": 1, "r1": 1, "r2": 1, "r3": 1}, seen)
}

func TestLookup_DisjointPatternsSelectOnlyOwner(t *testing.T) {
	m := NewMap()
	const n = 10
	for i := range n {
		m.Insert(stub(fmt.Sprintf("r%d", i), fmt.Sprintf("p%d-a", i), fmt.Sprintf("p%d-b", i)))
	}

	for i := range n {
		c := m.Lookup([]string{fmt.Sprintf("p%d-a", i), fmt.Sprintf("p%d-b", i)})
		assert.Equal(t, []int{i}, c.Indices(), "rule %d", i)
	}
}

func TestLookup_UnknownKeyContributesNothing(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A", "a"))

	c := m.Lookup([]string{"missing"})

	assert.Equal(t, 0, c.Len())
	_, ok := c.Next()
	assert.False(t, ok)
}

func TestCursor_SinglePass(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A", "a"))
	m.Insert(stub("B", "a"))

	c := m.Lookup([]string{"a"})
	require.Equal(t, 2, c.Remaining())

	_, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, 1, c.Remaining())

	_, ok = c.Next()
	require.True(t, ok)
	_, ok = c.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 2, c.Len())
}

func TestMap_InsertReturnsIndex(t *testing.T) {
	m := NewMap()

	assert.Equal(t, 0, m.Insert(stub("A", "a")))
	assert.Equal(t, 1, m.Insert(stub("B")))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "B", m.At(1).ID())
	assert.Equal(t, []int{0}, m.Subscribers("a"))
	assert.Equal(t, []int{1}, m.Wildcards())
}

func TestMap_All(t *testing.T) {
	m := NewMap()
	m.Insert(stub("A", "a"))
	m.Insert(stub("B"))
	m.Insert(stub("C", "c"))

	assert.Equal(t, []string{"A", "B", "C"}, ids(m.All()))
}

func TestFromConfigs(t *testing.T) {
	m := FromConfigs([]Config{
		{ID: "login", Kind: KindLinear, Patterns: []string{"login"}},
		{ID: "any"},
	})

	require.Equal(t, 2, m.Len())
	assert.IsType(t, &LinearContext{}, m.At(0))
	assert.Equal(t, []int{1}, m.Wildcards())
}

func TestConfigBuild_UnknownKindPanics(t *testing.T) {
	cfg := Config{ID: "x", Kind: "tree"}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, IsUnknownKindError(err))
		assert.Contains(t, err.Error(), `"tree"`)
	}()
	cfg.Build()
}

func TestIsValidKind(t *testing.T) {
	assert.True(t, IsValidKind(""))
	assert.True(t, IsValidKind(KindLinear))
	assert.False(t, IsValidKind("tree"))
}
