package rule

// Cursor is a single-pass, forward-only walk over the rules selected by a
// lookup. It is not safe for concurrent use and cannot be rewound.
type Cursor struct {
	indices []int
	pos     int
	rules   []Rule
}

// Next returns the next rule, or false when the cursor is exhausted.
func (c *Cursor) Next() (Rule, bool) {
	if c.pos >= len(c.indices) {
		return nil, false
	}
	r := c.rules[c.indices[c.pos]]
	c.pos++
	return r, true
}

// Len returns the total number of rules selected by the lookup.
func (c *Cursor) Len() int {
	return len(c.indices)
}

// Remaining returns how many rules Next has yet to yield.
func (c *Cursor) Remaining() int {
	return len(c.indices) - c.pos
}

// Indices returns the selected rule indices in visiting order.
func (c *Cursor) Indices() []int {
	out := make([]int, len(c.indices))
	copy(out, c.indices)
	return out
}
