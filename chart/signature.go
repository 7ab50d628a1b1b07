package chart

import (
	"fmt"

	"github.com/cnf/structhash"
)

// edgeSignature fingerprints an edge by (LHS, start, dot, children), the
// key spec.md §4.1 specifies for duplicate suppression: "two edges with the
// same (LHS, dot position, signature of children) are merged". Using
// structhash mirrors the teacher's own use of it in lr/earley/earley.go to
// fingerprint Earley items for its backlinks map.
func edgeSignature(e *Edge) string {
	childIDs := make([]int32, 0, e.Dot)
	for p := e; p != nil && p.ItemPtr != nil; p = p.Pred {
		childIDs = append(childIDs, p.ItemPtr.ID)
	}
	key := struct {
		LHS      int32
		Start    int
		Dot      int
		Children []int32
	}{
		LHS:      int32(e.LHS.ID),
		Start:    e.Start,
		Dot:      e.Dot,
		Children: childIDs,
	}
	hash, err := structhash.Hash(key, 1)
	if err != nil {
		// structhash only fails on unhashable types; our key is a plain
		// struct of ints and a slice of ints, so this is unreachable in
		// practice. Fall back to a cheap deterministic string so a bug
		// elsewhere degrades to "no suppression" rather than a panic.
		return fmt.Sprintf("fallback:%d:%d:%d:%v", e.LHS.ID, e.Start, e.Dot, childIDs)
	}
	return hash
}

// derivationSignature fingerprints a completed AnswerTree by
// (labeled-bracketing, yield), the key the N-best extractor's
// duplicate-suppression trie uses (spec.md §4.1 "Uniqueness").
func derivationSignature(t *AnswerTree) string {
	lhs, yield, _ := t.signature()
	bracketing := t.Bracketed()
	key := struct {
		LHS        string
		Yield      string
		Bracketing string
	}{LHS: lhs, Yield: yield, Bracketing: bracketing}
	hash, err := structhash.Hash(key, 1)
	if err != nil {
		return fmt.Sprintf("fallback:%s:%s:%s", lhs, yield, bracketing)
	}
	return hash
}
