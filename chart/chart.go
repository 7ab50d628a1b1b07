package chart

import (
	"github.com/bfchart/bfchart/span"
	"github.com/bfchart/bfchart/symbol"
	"github.com/emirpasic/gods/lists/arraylist"
)

// Chart is the 2-D array indexed by (start, finish) storing all completed
// items spanning that range — spec.md GLOSSARY. A Chart, its items and its
// edges are created at parse start, owned by the chart, and destroyed when
// the next sentence begins; an explicit deferred-free list amortizes that
// reset (spec.md §3 "Lifecycles", §9 "Cyclic ownership").
type Chart struct {
	n int // sentence length

	// cells[start][finish] holds the per-nonterminal items completed over
	// that span, keyed by symbol id.
	cells [][]map[symbol.ID]*Item

	nextItemID int32
	nextEdgeID int32

	// deferredFree collects every Item and Edge allocated during this
	// parse so the next Reset can walk one flat list instead of chasing
	// the Item↔Edge cross-reference graph (spec.md §9).
	deferredFree *arraylist.List

	// waiting holds active N-ary edges predicted from an item that have no
	// continuation item yet: keyed by the position they need a daughter to
	// start at, then by that daughter's required symbol. When an item
	// completing at exactly that (position, symbol) is added, the waiting
	// edges move onto its Needing list and are extended immediately
	// (spec.md §4.1 step 4's "needing edges" mechanism).
	waiting map[int]map[symbol.ID][]*Edge
}

// NewChart allocates an empty chart for a sentence of length n.
func NewChart(n int) *Chart {
	cells := make([][]map[symbol.ID]*Item, n+1)
	for s := 0; s <= n; s++ {
		cells[s] = make([]map[symbol.ID]*Item, n+1)
	}
	return &Chart{n: n, cells: cells, deferredFree: arraylist.New()}
}

// Reset clears the chart for reuse on the next sentence, amortizing
// allocation by reusing the outer cells slice and the deferred-free list's
// backing array.
func (c *Chart) Reset(n int) {
	if len(c.cells) < n+1 {
		c.cells = make([][]map[symbol.ID]*Item, n+1)
		for s := range c.cells {
			c.cells[s] = make([]map[symbol.ID]*Item, n+1)
		}
	} else {
		for s := 0; s <= n; s++ {
			for f := range c.cells[s] {
				c.cells[s][f] = nil
			}
		}
	}
	c.n = n
	c.nextItemID = 0
	c.nextEdgeID = 0
	c.deferredFree.Clear()
	c.waiting = nil
}

// RegisterNeeding records that e cannot continue until an item labeled
// needed starts at e's current junction, per spec.md §3's Item.Needing
// ("edges that need this item to grow"). The registration is picked up by
// DrainNeeding once such an item is actually added.
func (c *Chart) RegisterNeeding(e *Edge, needed symbol.ID) {
	if c.waiting == nil {
		c.waiting = make(map[int]map[symbol.ID][]*Edge)
	}
	pos := e.Junction()
	m := c.waiting[pos]
	if m == nil {
		m = make(map[symbol.ID][]*Edge)
		c.waiting[pos] = m
	}
	m[needed] = append(m[needed], e)
}

// DrainNeeding returns (and forgets) every edge previously registered as
// needing an item labeled it.LHS to start at it.Span.From(), attaching them
// to it.Needing so the item records which edges it grew (spec.md §3).
func (c *Chart) DrainNeeding(it *Item) []*Edge {
	if c.waiting == nil {
		return nil
	}
	m := c.waiting[it.Span.From()]
	if m == nil {
		return nil
	}
	edges := m[it.LHS.ID]
	if len(edges) == 0 {
		return nil
	}
	delete(m, it.LHS.ID)
	for _, e := range edges {
		it.Needing.Add(e)
	}
	return edges
}

// NewItem allocates a fresh Item for (lhs, sp) tracked by this chart's
// deferred-free list.
func (c *Chart) NewItem(lhs *symbol.Symbol, sp span.Span) *Item {
	it := NewItem(c.nextItemID, lhs, sp)
	c.nextItemID++
	c.deferredFree.Add(it)
	return it
}

// trackEdge assigns e the next edge serial number and remembers the edge for
// bulk reset, mirroring NewItem.
func (c *Chart) trackEdge(e *Edge) *Edge {
	e.ID = c.nextEdgeID
	c.nextEdgeID++
	c.deferredFree.Add(e)
	return e
}

// Cell returns the item for (lhs, sp) if one has already been added, or nil.
func (c *Chart) Cell(lhs *symbol.Symbol, sp span.Span) *Item {
	row := c.cells[sp.From()]
	if row == nil {
		return nil
	}
	m := row[sp.To()]
	if m == nil {
		return nil
	}
	return m[lhs.ID]
}

// AddOrMerge installs a newly-finished item, or merges into an existing one
// at the same cell per spec.md §4.1 step 2 ("If ... has not yet been added
// to the chart cell, add it ... Otherwise merge with the existing item").
// Returns the (possibly pre-existing) Item and whether it was newly added.
func (c *Chart) AddOrMerge(lhs *symbol.Symbol, sp span.Span, inside float64, parent *Edge) (*Item, bool) {
	row := c.cells[sp.From()]
	if row[sp.To()] == nil {
		row[sp.To()] = make(map[symbol.ID]*Item)
	}
	m := row[sp.To()]
	if existing, ok := m[lhs.ID]; ok {
		existing.Merge(inside, parent)
		return existing, false
	}
	it := c.NewItem(lhs, sp)
	it.Merge(inside, parent)
	m[lhs.ID] = it
	return it, true
}

// ItemsEndingAt returns every completed item whose span ends exactly at
// position p, across all start positions and labels — used to find edges a
// newly-finished item should extend to the left (spec.md §4.1 step 4).
func (c *Chart) ItemsEndingAt(p int) []*Item {
	var out []*Item
	for s := 0; s <= p; s++ {
		if c.cells[s] == nil || c.cells[s][p] == nil {
			continue
		}
		for _, it := range c.cells[s][p] {
			out = append(out, it)
		}
	}
	return out
}

// ItemsStartingAt returns every completed item whose span starts exactly at
// position p (spec.md §4.1 step 4, right-side case).
func (c *Chart) ItemsStartingAt(p int) []*Item {
	var out []*Item
	row := c.cells[p]
	for f := p; f <= c.n; f++ {
		if row[f] == nil {
			continue
		}
		for _, it := range row[f] {
			out = append(out, it)
		}
	}
	return out
}

// Root returns the completed root item spanning the whole sentence for the
// given root symbol, or nil.
func (c *Chart) Root(rootSym *symbol.Symbol) *Item {
	return c.Cell(rootSym, span.New(0, c.n))
}
