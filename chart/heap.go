package chart

import "container/heap"

// EdgeHeap is the global priority queue C1 drives all parse construction
// from: a fixed-capacity max-heap keyed by merit (spec.md §3 "Edge heap").
// Edges embed their own heap position (Edge.HeapIndex) so Fix can reposition
// a specific edge in O(log N) without a search, which is why this is a
// hand-rolled array-backed heap over container/heap rather than
// gods/trees/binaryheap: gods' binary heap does not expose an index-based
// Fix/update operation, and that operation is load-bearing here (spec.md §9
// "Heap-index back-pointers... the heap operations update it atomically
// with swaps").
type EdgeHeap struct {
	edges    []*Edge
	capacity int
	seq      int64 // last insertion sequence number handed out by Insert
}

// NewEdgeHeap creates an empty heap bounded at capacity (spec.md §9's
// compile-time 370000 becomes a runtime-configurable bound here; see
// config.ParserConfig.EdgeHeapCapacity).
func NewEdgeHeap(capacity int) *EdgeHeap {
	return &EdgeHeap{capacity: capacity}
}

func (h *EdgeHeap) Len() int { return len(h.edges) }

func (h *EdgeHeap) Less(i, j int) bool {
	if h.edges[i].merit != h.edges[j].merit {
		return h.edges[i].merit > h.edges[j].merit // max-heap
	}
	return h.edges[i].seq < h.edges[j].seq // ties broken by insertion order
}

func (h *EdgeHeap) Swap(i, j int) {
	h.edges[i], h.edges[j] = h.edges[j], h.edges[i]
	h.edges[i].HeapIndex = i
	h.edges[j].HeapIndex = j
}

func (h *EdgeHeap) Push(x interface{}) {
	e := x.(*Edge)
	e.HeapIndex = len(h.edges)
	h.edges = append(h.edges, e)
}

func (h *EdgeHeap) Pop() interface{} {
	n := len(h.edges)
	e := h.edges[n-1]
	h.edges[n-1] = nil
	h.edges = h.edges[:n-1]
	e.HeapIndex = -1
	return e
}

// Insert pushes an edge onto the heap, returning OverflowFailure if the
// heap is already at capacity (spec.md §4.1 "Failure semantics").
func (h *EdgeHeap) Insert(e *Edge) error {
	if len(h.edges) >= h.capacity {
		return &OverflowFailure{Capacity: h.capacity}
	}
	h.seq++
	e.seq = h.seq
	heap.Push(h, e)
	return nil
}

// PopBest removes and returns the highest-merit active edge, or nil if the
// heap is empty.
func (h *EdgeHeap) PopBest() *Edge {
	if len(h.edges) == 0 {
		return nil
	}
	return heap.Pop(h).(*Edge)
}

// Fix restores the heap invariant after e's merit has changed in place
// (e.g. after ApplyDemerit), using e's own HeapIndex — the O(log N)
// operation spec.md §9 calls for.
func (h *EdgeHeap) Fix(e *Edge) {
	if e.HeapIndex < 0 || e.HeapIndex >= len(h.edges) {
		return
	}
	heap.Fix(h, e.HeapIndex)
}

// Remove deletes e from the heap outright (used when an edge is discarded
// after exceeding its demerit bound).
func (h *EdgeHeap) Remove(e *Edge) {
	if e.HeapIndex < 0 || e.HeapIndex >= len(h.edges) {
		return
	}
	heap.Remove(h, e.HeapIndex)
}

// CheckInvariant verifies, for every edge on the heap, that its heap
// position is self-consistent and that no child has higher merit than its
// parent — the testable property spec.md §8 names "Heap invariant".
func (h *EdgeHeap) CheckInvariant() bool {
	for i, e := range h.edges {
		if e.HeapIndex != i {
			return false
		}
		for _, c := range []int{2*i + 1, 2*i + 2} {
			if c < len(h.edges) && h.Less(c, i) {
				return false
			}
		}
	}
	return true
}

// --- N-best heap ------------------------------------------------------

// Derivation is one scored, fully-built parse tree candidate used by the
// N-best extractor's search (spec.md §4.1): a completed AnswerTree and its
// log-probability. The extractor's own frontier (chart/nbest.go's
// candidateState) tracks which child ranks a partially-expanded derivation
// has chosen; once a candidate is materialized here it is always complete.
type Derivation struct {
	Tree    *AnswerTree
	LogProb float64
}

// AnsTreeHeap is a fixed-capacity min-heap of size Nth keyed by negative
// log-probability (spec.md §3 "N-best heap"): equivalently, a max-heap on
// log-probability that discards the worst entry once it exceeds capacity.
// Implemented the same way as EdgeHeap and for the same reason: gods'
// binary heap has no capacity-bounded "push, then evict the worst if over
// capacity" primitive, and that eviction is exactly what this type exists
// to do efficiently.
type AnsTreeHeap struct {
	items    []*Derivation
	capacity int
}

// NewAnsTreeHeap creates an AnsTreeHeap with the given capacity (Nth,
// default 50 per spec.md §3).
func NewAnsTreeHeap(capacity int) *AnsTreeHeap {
	return &AnsTreeHeap{capacity: capacity}
}

func (h *AnsTreeHeap) Len() int { return len(h.items) }
func (h *AnsTreeHeap) Less(i, j int) bool {
	return h.items[i].LogProb < h.items[j].LogProb // min-heap: worst (lowest logprob) at root
}
func (h *AnsTreeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *AnsTreeHeap) Push(x interface{}) {
	h.items = append(h.items, x.(*Derivation))
}
func (h *AnsTreeHeap) Pop() interface{} {
	n := len(h.items)
	d := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	return d
}

// Offer inserts d, evicting the worst-scoring entry if the heap is already
// at capacity and d beats it; returns true if d was kept.
func (h *AnsTreeHeap) Offer(d *Derivation) bool {
	if len(h.items) < h.capacity {
		heap.Push(h, d)
		return true
	}
	if len(h.items) == 0 || d.LogProb <= h.items[0].LogProb {
		return false
	}
	heap.Pop(h)
	heap.Push(h, d)
	return true
}

// Sorted returns the heap's contents in decreasing log-probability order —
// spec.md §8's "N-best order" property.
func (h *AnsTreeHeap) Sorted() []*Derivation {
	out := make([]*Derivation, len(h.items))
	copy(out, h.items)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].LogProb > out[i].LogProb {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
