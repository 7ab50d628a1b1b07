package chart

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bfchart/bfchart/symbol"
)

// Rule is an admissible rule bundle of any arity: a parent category, its
// ordered right-hand side, and the index of the head daughter within it.
// original_source/first-stage/PARSE/ClassRule.h keeps three separate arrays
// for this (rBundles2_, rBundles3_, rBundlesm_, one per arity bucket); here
// they collapse into a single arity-indexed table since Go slices make the
// arity-specific array sizing ClassRule.h needed unnecessary.
type Rule struct {
	Parent symbol.ID
	RHS    []symbol.ID
	Head   int
}

// Grammar is the admissibility table the chart parser consults before even
// asking the smoothed model for a rule probability: which parent categories
// are structurally possible over a given child sequence. binary/unary are
// the fast-path tables for the two most common arities; rules/byFirst cover
// genuine N-ary (arity ≥ 3) dotted-rule extension, the mechanism spec.md §3
// and §4.1 step 5 describe and ClassRule.h's multi-ary bundles confirm is
// part of the real grammar.
type Grammar struct {
	binary map[[2]symbol.ID][]symbol.ID
	unary  map[symbol.ID][]symbol.ID

	// rules holds every admissible rule of arity ≥ 3; byFirst indexes them
	// by their first RHS symbol so a freshly-completed item can predict the
	// active edges it starts (spec.md §4.1 step 4).
	rules   []*Rule
	byFirst map[symbol.ID][]*Rule

	// heads maps a (parent, RHS...) rule signature to its head daughter's
	// index, loaded from headInfo.txt. Binary and unary rules are looked up
	// here too; a rule with no recorded head defaults to the leftmost
	// daughter (index 0).
	heads map[string]int

	// ntCounts is nttCounts.txt's per-nonterminal training counts, used as
	// a cheap admissibility pre-filter: a parent category with a recorded
	// count of exactly zero never actually occurred in training and is
	// rejected before a model query is even attempted.
	ntCounts map[symbol.ID]int
}

// NewGrammar creates an empty, directly-populatable Grammar (tests build
// small grammars this way without a model directory on disk).
func NewGrammar() *Grammar {
	return &Grammar{
		binary:   make(map[[2]symbol.ID][]symbol.ID),
		unary:    make(map[symbol.ID][]symbol.ID),
		byFirst:  make(map[symbol.ID][]*Rule),
		heads:    make(map[string]int),
		ntCounts: make(map[symbol.ID]int),
	}
}

// AddBinary declares that `parent → left right` is a grammatical rule.
func (g *Grammar) AddBinary(parent, left, right symbol.ID) {
	key := [2]symbol.ID{left, right}
	g.binary[key] = appendUnique(g.binary[key], parent)
}

// AddUnary declares that `parent → child` is a grammatical unary rule.
func (g *Grammar) AddUnary(parent, child symbol.ID) {
	g.unary[child] = appendUnique(g.unary[child], parent)
}

// AddRule declares an admissible rule of any arity, folding arity 1 and 2
// into the fast-path unary/binary tables and indexing arity ≥ 3 rules by
// their first RHS symbol for active-edge prediction.
func (g *Grammar) AddRule(parent symbol.ID, rhs []symbol.ID, head int) {
	switch len(rhs) {
	case 0:
		return
	case 1:
		g.AddUnary(parent, rhs[0])
	case 2:
		g.AddBinary(parent, rhs[0], rhs[1])
	default:
		r := &Rule{Parent: parent, RHS: append([]symbol.ID(nil), rhs...), Head: head}
		g.rules = append(g.rules, r)
		g.byFirst[rhs[0]] = append(g.byFirst[rhs[0]], r)
	}
	g.SetHead(parent, rhs, head)
}

// RulesStartingWith returns every arity-≥3 rule whose first daughter is
// first, the set an active edge gets predicted from when an item labeled
// first completes (spec.md §4.1 step 4).
func (g *Grammar) RulesStartingWith(first symbol.ID) []*Rule {
	return g.byFirst[first]
}

func appendUnique(xs []symbol.ID, x symbol.ID) []symbol.ID {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

// BinaryParents returns the admissible parent categories over (left, right).
func (g *Grammar) BinaryParents(left, right symbol.ID) []symbol.ID {
	return g.binary[[2]symbol.ID{left, right}]
}

// UnaryParents returns the admissible unary parent categories over child.
func (g *Grammar) UnaryParents(child symbol.ID) []symbol.ID {
	return g.unary[child]
}

// SetHead records the head-daughter index for a (parent, rhs) rule.
func (g *Grammar) SetHead(parent symbol.ID, rhs []symbol.ID, head int) {
	if g.heads == nil {
		g.heads = make(map[string]int)
	}
	g.heads[ruleKey(parent, rhs)] = head
}

// HeadIndex returns the recorded head-daughter index for (parent, rhs), or
// 0 (leftmost daughter) if headInfo.txt never named one.
func (g *Grammar) HeadIndex(parent symbol.ID, rhs []symbol.ID) int {
	if h, ok := g.heads[ruleKey(parent, rhs)]; ok {
		return h
	}
	return 0
}

// Count returns nttCounts.txt's recorded training count for nt, or -1 if
// nttCounts.txt was never loaded (meaning "no opinion": admissibility
// falls back to the binary/unary/rules tables alone).
func (g *Grammar) Count(nt symbol.ID) int {
	if g.ntCounts == nil {
		return -1
	}
	if c, ok := g.ntCounts[nt]; ok {
		return c
	}
	return -1
}

func ruleKey(parent symbol.ID, rhs []symbol.ID) string {
	b := make([]byte, 0, 4+4*len(rhs))
	put := func(v symbol.ID) {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	put(parent)
	for _, s := range rhs {
		put(s)
	}
	return string(b)
}

// LoadUnitRules reads unitRules.txt: lines `<child-name> <parent-name>`
// (spec.md §6).
func (g *Grammar) LoadUnitRules(path string, symbols *symbol.Table) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("chart: opening unitRules.txt: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("chart: malformed unitRules.txt line %q", line)
		}
		child := symbols.Lookup(fields[0])
		parent := symbols.Lookup(fields[1])
		if child == nil || parent == nil {
			continue
		}
		g.AddUnary(parent.ID, child.ID)
	}
	return sc.Err()
}

// LoadHeadInfo reads headInfo.txt (spec.md §6's structural table), the
// admissible rule bundles of arity ≥ 1 along with each rule's head
// daughter: lines `<parent-name> <head-index> <rhs-name> [<rhs-name> ...]`.
// A rule with a single RHS symbol is a unary chain; two, the binary fast
// path; three or more populate the N-ary prediction table. The exact
// column layout is not recoverable from the retrieval pack (headInfo.txt
// itself is absent from original_source/), so this format is this
// project's own choice grounded on ClassRule.h's {mother, daughters,
// head-marked-relation} shape — see DESIGN.md.
func (g *Grammar) LoadHeadInfo(path string, symbols *symbol.Table) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("chart: opening headInfo.txt: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return fmt.Errorf("chart: malformed headInfo.txt line %q", line)
		}
		parent := symbols.Lookup(fields[0])
		if parent == nil {
			continue
		}
		head, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("chart: malformed headInfo.txt head index %q: %w", fields[1], err)
		}
		rhs := make([]symbol.ID, 0, len(fields)-2)
		ok := true
		for _, name := range fields[2:] {
			s := symbols.Lookup(name)
			if s == nil {
				ok = false
				break
			}
			rhs = append(rhs, s.ID)
		}
		if !ok || head < 0 || head >= len(rhs) {
			continue
		}
		g.AddRule(parent.ID, rhs, head)
	}
	return sc.Err()
}

// LoadNTTCounts reads nttCounts.txt (spec.md §6's structural table): lines
// `<name> <count>`, the per-nonterminal training counts used as a cheap
// admissibility pre-filter (Grammar.Count).
func (g *Grammar) LoadNTTCounts(path string, symbols *symbol.Table) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("chart: opening nttCounts.txt: %w", err)
	}
	defer f.Close()
	if g.ntCounts == nil {
		g.ntCounts = make(map[symbol.ID]int)
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("chart: malformed nttCounts.txt line %q", line)
		}
		s := symbols.Lookup(fields[0])
		if s == nil {
			continue
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("chart: malformed nttCounts.txt count %q: %w", fields[1], err)
		}
		g.ntCounts[s.ID] = count
	}
	return sc.Err()
}

// ruleEvent packs (parent, left, right) into a single conditioned-event id
// for the smoothed model's CalcRule queries. Symbol ids are small (≤200 per
// spec.md §3), so this fits comfortably in int32 without collisions.
func ruleEvent(parent, left, right symbol.ID) int32 {
	const base = 1024
	return int32(parent)*base*base + int32(left)*base + int32(right)
}

// ruleEventN generalizes ruleEvent to a rule of any arity: it folds (parent,
// RHS...) into a single event id via repeated multiply-add, since the fixed
// positional base ruleEvent uses would overflow int32 past three or four
// components. Collisions only blur which history a smoothed count gets
// attributed to, not correctness of the query contract itself.
func ruleEventN(parent symbol.ID, rhs []symbol.ID) int32 {
	h := int32(parent)
	for _, s := range rhs {
		h = h*1000003 + int32(s)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// unaryEvent packs (parent, child) for CalcUnary queries.
func unaryEvent(parent, child symbol.ID) int32 {
	const base = 1024
	return int32(parent)*base + int32(child)
}

// preterminalEvent turns a tag into the event id for CalcMain queries
// seeding the chart's preterminal edges; no vocabulary bucket is folded in.
func preterminalEvent(tag symbol.ID) int32 {
	return int32(tag)
}
