package chart

import "sort"

// extractNBest produces the parse's final N-best list from the chart's
// completed root item, per spec.md §4.1 "N-best extraction": up to Nth
// scored derivations, strictly descending by log-probability, with
// duplicate bracketings suppressed.
func (r *parseRun) extractNBest() (NBestList, error) {
	k := r.cfg.Nth
	if k <= 0 {
		k = 1
	}
	derivs := r.rankedDerivations(r.rootItem, k)
	if len(derivs) == 0 {
		return nil, &ParseFailure{Reason: "no derivations could be extracted for the root item"}
	}
	out := make(NBestList, len(derivs))
	for i, d := range derivs {
		out[i] = ScoredTree{LogProb: d.LogProb, Tree: d.Tree}
	}
	return out, nil
}

// edgeChildren returns the child items e's derivation depends on, in
// left-to-right order, by walking the full active/finished Pred chain back
// to the rule's start. This handles unary, binary, and genuine N-ary rules
// alike: each link in the chain contributes exactly the one item it added.
func edgeChildren(e *Edge) []*Item {
	var out []*Item
	for cur := e; cur != nil; cur = cur.Pred {
		if cur.ItemPtr != nil {
			out = append(out, cur.ItemPtr)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// candidateState is one point in an item's derivation-rank search space: a
// specific contributing edge plus a chosen rank (0 = best, 1 = next-best,
// ...) for each of that edge's children.
type candidateState struct {
	edge    *Edge
	ranks   []int
	logProb float64
}

func stateKey(s *candidateState) string {
	key := make([]byte, 0, 16)
	key = append(key, byte(s.edge.ID), byte(s.edge.ID>>8), byte(s.edge.ID>>16), byte(s.edge.ID>>24))
	for _, rk := range s.ranks {
		key = append(key, byte(rk), byte(rk>>8))
	}
	return string(key)
}

// rankedDerivations returns up to k ranked derivations for item, computing
// and memoizing additional ranks beyond the one already filled in during
// parsing (spec.md §4.1: the extractor "keeps a bounded, lazily-expanded
// list per item and recurses into children only as far as a requested rank
// demands"). Results are cached in item's default-context N-best table,
// shared across callers asking for different items that both depend on it.
func (r *parseRun) rankedDerivations(item *Item, k int) []*Derivation {
	if k <= 0 {
		return nil
	}
	derivs := item.Derivations()
	if len(derivs) >= k {
		return derivs[:k]
	}
	if item.rankedExhausted {
		return derivs
	}

	frontier := make([]*candidateState, 0, len(item.Edges))
	visited := map[string]bool{}
	push := func(s *candidateState) {
		if s == nil {
			return
		}
		key := stateKey(s)
		if visited[key] {
			return
		}
		visited[key] = true
		frontier = append(frontier, s)
	}
	for _, e := range item.Edges {
		push(r.seedState(e))
	}
	seenSig := make(map[string]bool, len(derivs))
	for _, d := range derivs {
		seenSig[derivationSignature(d.Tree)] = true
	}

	ops := 0
	for len(derivs) < k && len(frontier) > 0 {
		ops++
		if r.cfg.NBestExtractionCap > 0 && ops > r.cfg.NBestExtractionCap {
			break
		}
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].logProb > frontier[j].logProb })
		best := frontier[0]
		frontier = frontier[1:]

		tree := r.stateTree(best)
		sig := derivationSignature(tree)
		if !seenSig[sig] {
			seenSig[sig] = true
			item.AddDerivation(&Derivation{Tree: tree, LogProb: best.logProb})
			derivs = item.Derivations()
		}

		children := edgeChildren(best.edge)
		for i := range children {
			next := make([]int, len(best.ranks))
			copy(next, best.ranks)
			next[i]++
			if lp, ok := r.stateLogProb(best.edge, children, next); ok {
				push(&candidateState{edge: best.edge, ranks: next, logProb: lp})
			}
		}
	}
	if len(frontier) == 0 {
		item.rankedExhausted = true
	}
	if len(derivs) > k {
		return derivs[:k]
	}
	return derivs
}

// seedState builds the rank-0 (best-children) candidate for edge e, or nil
// if even the best combination is unavailable (e.g. a child has no
// derivations at all, which should not happen for a well-formed chart).
func (r *parseRun) seedState(e *Edge) *candidateState {
	children := edgeChildren(e)
	ranks := make([]int, len(children))
	lp, ok := r.stateLogProb(e, children, ranks)
	if !ok {
		return nil
	}
	return &candidateState{edge: e, ranks: ranks, logProb: lp}
}

// stateLogProb computes the combined log-probability of applying edge with
// each child resolved to the given rank, recursing into rankedDerivations
// to materialize whichever ranks are requested (the lazy expansion step).
func (r *parseRun) stateLogProb(e *Edge, children []*Item, ranks []int) (float64, bool) {
	lp := safeLog(e.RuleProb)
	for i, c := range children {
		ds := r.rankedDerivations(c, ranks[i]+1)
		if ranks[i] >= len(ds) {
			return 0, false
		}
		lp += ds[ranks[i]].LogProb
	}
	return lp, true
}

// stateTree materializes the AnswerTree for a candidate state, reusing
// already-memoized child derivations.
func (r *parseRun) stateTree(s *candidateState) *AnswerTree {
	children := edgeChildren(s.edge)
	if len(children) == 0 {
		word := r.sentence.Words[s.edge.Start]
		return &AnswerTree{Symbol: s.edge.LHS, Word: &word}
	}
	kids := make([]*AnswerTree, len(children))
	for i, c := range children {
		ds := r.rankedDerivations(c, s.ranks[i]+1)
		kids[i] = ds[s.ranks[i]].Tree
	}
	return &AnswerTree{Symbol: s.edge.LHS, Children: kids}
}
