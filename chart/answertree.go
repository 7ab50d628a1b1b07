package chart

import (
	"fmt"
	"strings"

	"github.com/bfchart/bfchart/symbol"
)

// AnswerTree is a minimal tree node used only for N-best reconstruction
// (spec.md §3): a terminal id, an optional word id (for preterminal
// leaves), and child answer-trees.
type AnswerTree struct {
	Symbol   *symbol.Symbol
	Word     *symbol.Word // non-nil only at preterminal leaves
	Children []*AnswerTree
}

// Bracketed renders the tree as a Penn-Treebank bracketed string, e.g.
// "(S1 (NP (NN cat)))", escaping parens in surface words per spec.md §6.
func (t *AnswerTree) Bracketed() string {
	var sb strings.Builder
	t.writeBracketed(&sb)
	return sb.String()
}

func (t *AnswerTree) writeBracketed(sb *strings.Builder) {
	if t == nil {
		return
	}
	if t.Word != nil {
		fmt.Fprintf(sb, "(%s %s)", t.Symbol.Name, symbol.EscapePTB(t.Word.Surface))
		return
	}
	fmt.Fprintf(sb, "(%s", t.Symbol.Name)
	for _, c := range t.Children {
		sb.WriteByte(' ')
		c.writeBracketed(sb)
	}
	sb.WriteByte(')')
}

// Yield returns the leaf surface words, left to right — used to check the
// round-trip testable property in spec.md §8.
func (t *AnswerTree) Yield() []string {
	if t == nil {
		return nil
	}
	if t.Word != nil {
		return []string{t.Word.Surface}
	}
	var out []string
	for _, c := range t.Children {
		out = append(out, c.Yield()...)
	}
	return out
}

// signature returns a (LHS, yield, child-labels) fingerprint used by the
// N-best extractor's duplicate-suppression trie (spec.md §4.1
// "Uniqueness").
func (t *AnswerTree) signature() (lhs string, yield string, childLabels string) {
	if t == nil {
		return "", "", ""
	}
	lhs = t.Symbol.Name
	yield = strings.Join(t.Yield(), " ")
	labels := make([]string, len(t.Children))
	for i, c := range t.Children {
		labels[i] = c.Symbol.Name
	}
	childLabels = strings.Join(labels, ",")
	return
}
