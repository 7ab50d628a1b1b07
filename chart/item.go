package chart

import (
	"github.com/bfchart/bfchart/span"
	"github.com/bfchart/bfchart/symbol"
	"github.com/emirpasic/gods/lists/arraylist"
)

// Item is a chart cell: a labeled, completed span (LHS, start, finish) that
// may be reused by many parent edges, per spec.md §3.
type Item struct {
	ID   int32
	LHS  *symbol.Symbol
	Span span.Span

	// HeadWord is set once the item's head has been determined (may be
	// nil for items whose head is not yet fixed, e.g. during certain
	// unary chains).
	HeadWord *symbol.Word

	Inside  float64 // inside probability: the maximum over merged derivations
	Outside float64 // outside estimate used for merit computation
	// SumProb accumulates the inside probabilities of every derivation
	// merged into this item. The N-best extractor does not read it; it ranks
	// derivations from Edges and the per-item N-best table.
	SumProb float64

	// Needing lists the edges that need this item to grow (predict an
	// extension using it); NeededBy lists the edges this item predicted.
	// Both use gods/arraylist, mirroring lr/tables.go's use of the same
	// package for chart-adjacent bookkeeping collections.
	Needing  *arraylist.List
	NeededBy *arraylist.List

	// Edges lists every finished edge that ever completed this cell — one
	// per distinct rule application reaching the same (LHS, span), the
	// candidate set the N-best extractor fans out over.
	Edges []*Edge

	// rankedExhausted marks that the extractor's frontier for this item
	// ran dry before reaching the requested rank count — every reachable
	// derivation has already been memoized in nbest's default context.
	rankedExhausted bool

	// nbest is the per-context N-best table: a context fingerprint maps to
	// a bounded list of ranked derivations (spec.md §3 "N-best heap"). The
	// production path only ever keys on defaultNBestContext; the table
	// stays keyed by fingerprint so a caller distinguishing preceding
	// contexts (e.g. a head-conditioned rescoring pass) can partition the
	// same item's candidates without a data-model change.
	nbest map[uint64]*AnsTreeHeap

	// parent is the merged finished edge with the highest inside
	// probability so far (spec.md §4.1 step 2). N-best extraction walks
	// Edges, not parent.
	parent *Edge
}

// NewItem creates an empty chart cell for (lhs, sp).
func NewItem(id int32, lhs *symbol.Symbol, sp span.Span) *Item {
	return &Item{
		ID:       id,
		LHS:      lhs,
		Span:     sp,
		Needing:  arraylist.New(),
		NeededBy: arraylist.New(),
		nbest:    make(map[uint64]*AnsTreeHeap),
	}
}

// Merge folds a second derivation of the same cell into this item: the
// invariant (spec.md §4.1 "Duplicate policy") is that inside probability is
// max-combined and outside is recomputed lazily.
func (it *Item) Merge(inside float64, parent *Edge) {
	it.SumProb += inside
	it.Edges = append(it.Edges, parent)
	if inside > it.Inside {
		it.Inside = inside
		it.parent = parent
	}
}

// defaultNBestContext is the context fingerprint the production parse path
// files every item's derivations under: the parser does not yet distinguish
// derivations by surrounding context, so every item has exactly one active
// bucket in its per-context N-best table.
const defaultNBestContext uint64 = 0

// nbestHeapCapacity bounds how many ranked derivations an item's default
// AnsTreeHeap retains. It is set well above any realistic per-sentence Nth
// so the bound is never the limiting factor in practice; Nth itself caps
// what extractNBest ultimately returns.
const nbestHeapCapacity = 256

// AddDerivation records a completed derivation for this item into its
// default-context N-best heap (spec.md §3 "N-best heap"), which keeps it in
// decreasing-score order and evicts the worst entry past capacity.
func (it *Item) AddDerivation(d *Derivation) {
	it.NBestFor(defaultNBestContext, nbestHeapCapacity).Offer(d)
}

// Derivations returns this item's recorded derivations in decreasing
// log-probability order.
func (it *Item) Derivations() []*Derivation {
	h, ok := it.nbest[defaultNBestContext]
	if !ok {
		return nil
	}
	return h.Sorted()
}

// NthDerivation returns the n-th best (0-indexed) derivation stored for
// this item, or nil if fewer than n+1 have been recorded.
func (it *Item) NthDerivation(n int) *Derivation {
	ds := it.Derivations()
	if n < 0 || n >= len(ds) {
		return nil
	}
	return ds[n]
}

// NBestFor returns (creating if absent) the bounded per-context N-best heap
// for a context fingerprint, per spec.md §3.
func (it *Item) NBestFor(context uint64, capacity int) *AnsTreeHeap {
	h, ok := it.nbest[context]
	if !ok {
		h = NewAnsTreeHeap(capacity)
		it.nbest[context] = h
	}
	return h
}
