package ime

import "github.com/nspt/chinese-pinyin-ime/pkg/dict"

// Candidates concatenates the results of several queries into one flat
// index space. Longer-prefix queries come first; within a query, entries
// keep bucket order. Any state-changing IME call invalidates it.
type Candidates struct {
	queries []Query
}

// Len returns the total number of candidate entries.
func (c *Candidates) Len() int {
	n := 0
	for i := range c.queries {
		n += c.queries[i].Len()
	}
	return n
}

// Empty reports whether no query matched anything.
func (c *Candidates) Empty() bool {
	for i := range c.queries {
		if !c.queries[i].Empty() {
			return false
		}
	}
	return true
}

// At returns the entry at flat index idx, nil when out of range.
func (c *Candidates) At(idx int) *dict.Entry {
	q, i := c.resolve(idx)
	if q == nil {
		return nil
	}
	return q.At(i)
}

// Queries returns the underlying query list in candidate order.
func (c *Candidates) Queries() []Query { return c.queries }

// resolve walks the queries until idx falls inside one, returning that
// query and the local index, or nil when idx is out of range.
func (c *Candidates) resolve(idx int) (*Query, int) {
	if idx < 0 {
		return nil, 0
	}
	for i := range c.queries {
		size := c.queries[i].Len()
		if idx >= size {
			idx -= size
			continue
		}
		return &c.queries[i], idx
	}
	return nil, 0
}

func (c *Candidates) push(q Query) {
	c.queries = append(c.queries, q)
}

func (c *Candidates) clear() {
	c.queries = c.queries[:0]
}
