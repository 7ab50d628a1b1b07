package chart

import "github.com/bfchart/bfchart/symbol"

// Status distinguishes an edge still being extended from one whose dot has
// reached the right end of its rule.
type Status int

const (
	Active Status = iota
	Finished
)

// Edge is a partially-built rule application, per spec.md §3. Edges form a
// DAG, not a tree: multiple parent edges may share a suffix via Pred.
type Edge struct {
	ID int32

	LHS  *symbol.Symbol
	RHS  []*symbol.Symbol // the rule's right-hand side
	Dot  int              // locator: position of the dot within RHS
	Start int             // start token position of the whole edge
	// junction is the token position the dot currently sits at; for a
	// freshly-seeded preterminal edge this is Start+1, just past its token.
	junction int

	// Pred is the back-pointer to the predecessor edge (the edge this one
	// extended); ItemPtr is the single item just added by that extension.
	Pred    *Edge
	ItemPtr *Item

	Status Status

	Inside     float64
	// RuleProb is this edge's own rule/lexical probability in isolation —
	// p(tag|word) for a seed edge, or the rule/unary probability the model
	// returned for this combination — with child contributions factored
	// out. The N-best extractor recombines this with whichever rank of
	// each child's derivation it is currently considering, since Inside
	// itself is fixed to the rank-0 (Viterbi) combination computed at
	// extension time.
	RuleProb   float64
	LeftMerit  float64
	RightMerit float64
	merit      float64 // cached combined figure-of-merit, heap key

	Demerits int

	// HeapIndex is this edge's current slot in the edge heap, maintained
	// by the heap itself so repositioning after a merit update is
	// O(log N) without a search (spec.md §3, §9 "Heap-index
	// back-pointers"). -1 means "not on the heap".
	HeapIndex int

	// Successors lists child completions: edges that extended this one.
	Successors []*Edge

	seq int64 // insertion sequence number, used to break merit ties (spec.md §5 "Ordering guarantees")
}

// NewSeedEdge creates a finished, zero-dot-distance edge for a preterminal
// rule application over a single token, the kind spec.md §4.1's
// initialization step seeds onto the heap.
func NewSeedEdge(id int32, lhs *symbol.Symbol, pos int, inside, merit float64) *Edge {
	return &Edge{
		ID:        id,
		LHS:       lhs,
		RHS:       nil,
		Dot:       0,
		Start:     pos,
		junction:  pos + 1,
		Status:    Finished,
		Inside:    inside,
		RuleProb:  inside,
		merit:     merit,
		HeapIndex: -1,
	}
}

// IsFinished reports whether the dot has reached the end of RHS.
func (e *Edge) IsFinished() bool {
	return e.Status == Finished
}

// Junction returns the token position the dot currently sits at: the
// boundary between what the edge has already consumed and what it still
// needs.
func (e *Edge) Junction() int {
	return e.junction
}

// Merit returns the edge's cached figure-of-merit (spec.md §4.1
// "merit(e) = inside(e) · outside_estimate(...) · demerit_factor^demerits ·
// edge_factor(...)"). Recomputing it is the caller's job (via SetMerit);
// Merit is a pure accessor so the heap can read the key cheaply.
func (e *Edge) Merit() float64 {
	return e.merit
}

// SetMerit updates the cached merit value. Callers must follow this with
// heap.Fix(e) if the edge is currently on a heap, to restore the heap
// invariant.
func (e *Edge) SetMerit(m float64) {
	e.merit = m
}

// ApplyDemerit increments the demerit counter and multiplies merit by
// demeritFactor, per spec.md §4.1 step 5. Returns true if the edge should
// now be discarded (demerits exceeded maxDemerits).
func (e *Edge) ApplyDemerit(demeritFactor float64, maxDemerits int) (discard bool) {
	e.Demerits++
	e.merit *= demeritFactor
	return e.Demerits > maxDemerits
}

// extend creates the successor edge formed by combining e with an adjacent
// finished item j: a new edge with the dot advanced past j's LHS symbol.
// The parseRun methods that call it set the successor's inside probability
// and, via SetMerit, its merit before it reaches the heap.
func (e *Edge) extend(id int32, item *Item, newJunction int) *Edge {
	succ := &Edge{
		ID:        id,
		LHS:       e.LHS,
		RHS:       e.RHS,
		Dot:       e.Dot + 1,
		Start:     e.Start,
		junction:  newJunction,
		Pred:      e,
		ItemPtr:   item,
		HeapIndex: -1,
	}
	if succ.RHS != nil && succ.Dot >= len(succ.RHS) {
		succ.Status = Finished
	}
	e.Successors = append(e.Successors, succ)
	return succ
}
