/*
Package chart implements C1, the best-first chart parser (spec.md §4.1): a
CKY-style bottom-up chart with a global priority queue that pops edges by
figure-of-merit, extends them, and drives all parse construction.
*/
package chart

import (
	"fmt"
	"math"

	"github.com/bfchart/bfchart/config"
	"github.com/bfchart/bfchart/lexicon"
	"github.com/bfchart/bfchart/model"
	"github.com/bfchart/bfchart/span"
	"github.com/bfchart/bfchart/symbol"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

func T() tracing.Trace {
	return gtrace.SyntaxTracer
}

// SpanConstraint asserts that the final derivation must contain exactly
// this labeled span, for spans whose length meets the configured minimum
// (spec.md §4.1 "guided mode").
type SpanConstraint struct {
	Span span.Span
	LHS  *symbol.Symbol
}

// Parser owns the immutable, shared-read-only data (symbol table, smoothed
// model, vocabulary, grammar) that every parse consults, plus the config
// governing search policy. One Parser is safely used from many goroutines
// at once (spec.md §5): all per-sentence mutable state lives in a fresh
// Chart, never on the Parser itself.
type Parser struct {
	Symbols *symbol.Table
	Model   *model.Model
	Vocab   *lexicon.Vocabulary
	Grammar *Grammar
	Runtime *config.ParserRuntime
}

// NewParser wires the loaded, read-only resources together.
func NewParser(symbols *symbol.Table, m *model.Model, vocab *lexicon.Vocabulary, grammar *Grammar, rt *config.ParserRuntime) *Parser {
	return &Parser{Symbols: symbols, Model: m, Vocab: vocab, Grammar: grammar, Runtime: rt}
}

// ScoredTree pairs a completed derivation's log-probability with its tree,
// the unit spec.md §4.1 says NBestList orders strictly descending by.
type ScoredTree struct {
	LogProb float64
	Tree    *AnswerTree
}

// NBestList is the ordered result of a successful parse: spec.md §4.1
// "an ordered sequence of (logProb, tree) pairs sorted descending by
// logProb".
type NBestList []ScoredTree

// Parse runs best-first search to produce up to Nth scored derivations of
// the root symbol spanning the whole sentence, per spec.md §4.1's public
// contract.
func (p *Parser) Parse(sentence symbol.Sentence, extPos [][]symbol.ID, constraints []SpanConstraint) (NBestList, error) {
	cfg := p.Runtime.Config
	n := sentence.Len()
	if n == 0 {
		return nil, &ParseFailure{Reason: "empty sentence"}
	}
	if n > cfg.MaxSentenceLength {
		return nil, &InputError{Reason: fmt.Sprintf("sentence length %d exceeds MaxSentenceLength %d", n, cfg.MaxSentenceLength)}
	}

	slot, release, err := p.Runtime.Slots.Guard()
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	defer release()
	T().Debugf("chart: parsing %q on slot %d (%d tokens)", sentence.Name, slot, n)

	run := &parseRun{
		p:           p,
		cfg:         cfg,
		sentence:    sentence,
		n:           n,
		chart:       NewChart(n),
		heap:        NewEdgeHeap(cfg.EdgeHeapCapacity),
		constraints: constraints,
		extPos:      extPos,
	}
	return run.parse()
}

// parseRun holds all the mutable, per-sentence state spec.md §9's "Cyclic
// ownership" design note calls for isolating from the shared Parser.
type parseRun struct {
	p   *Parser
	cfg *config.ParserConfig

	sentence symbol.Sentence
	n        int

	chart *Chart
	heap  *EdgeHeap

	constraints []SpanConstraint
	extPos      [][]symbol.ID

	popCount      int
	rootFirstSeen int // pop count at which a root item first completed; 0 means not yet
	rootItem      *Item

	// seenEdges deduplicates binary/unary combinations by signature
	// (spec.md §4.1 "Duplicate policy"); lazily created by seen().
	seenEdges map[string]*Edge
}

func (r *parseRun) parse() (NBestList, error) {
	if err := r.seed(); err != nil {
		return nil, err
	}
	if err := r.mainLoop(); err != nil {
		return nil, err
	}
	if r.rootItem == nil {
		return nil, &ParseFailure{Reason: "no root edge completed within budget"}
	}
	return r.extractNBest()
}

// seed enumerates candidate preterminal tags for each token and pushes a
// finished seed edge per tag, per spec.md §4.1 "Initialization".
func (r *parseRun) seed() error {
	for i, w := range r.sentence.Words {
		candidates := r.candidateTags(i, w)
		for _, tag := range candidates {
			pTag := r.tagProbability(w, tag)
			if pTag <= 0 {
				continue
			}
			alpha := r.edgeFactor(i)
			edge := NewSeedEdge(0, r.p.Symbols.ByID(tag), i, pTag, pTag*alpha)
			r.chart.trackEdge(edge)
			if err := r.heap.Insert(edge); err != nil {
				return err
			}
		}
	}
	if r.heap.Len() == 0 {
		return &ParseFailure{Reason: "no preterminal seeds could be generated"}
	}
	return nil
}

// candidateTags resolves which preterminal tags are allowed to dominate
// token i: extPos constraints narrow the set first, then the vocabulary
// (in-vocabulary tag distribution, or the OOV back-off's full preterminal
// inventory) supplies the candidates.
func (r *parseRun) candidateTags(i int, w symbol.Word) []symbol.ID {
	var allowed map[symbol.ID]bool
	if i < len(r.extPos) && len(r.extPos[i]) > 0 {
		allowed = make(map[symbol.ID]bool, len(r.extPos[i]))
		for _, id := range r.extPos[i] {
			allowed[id] = true
		}
	}
	var out []symbol.ID
	if tags, ok := r.p.Vocab.Resolve(w.Surface); ok {
		for _, tp := range tags {
			if allowed != nil && !allowed[tp.Tag] {
				continue
			}
			out = append(out, tp.Tag)
		}
		return out
	}
	for _, s := range r.p.Symbols.All() {
		if !s.Class.IsPreterminal() {
			continue
		}
		if allowed != nil && !allowed[s.ID] {
			continue
		}
		out = append(out, s.ID)
	}
	return out
}

func (r *parseRun) tagProbability(w symbol.Word, tag symbol.ID) float64 {
	if tags, ok := r.p.Vocab.Resolve(w.Surface); ok {
		for _, tp := range tags {
			if tp.Tag == tag {
				return tp.Prob
			}
		}
		return 0
	}
	return r.p.Vocab.UnknownWordProbability(w.Surface, tag)
}

// edgeFactor biases edges starting at the sentence boundary vs.
// mid-sentence, per spec.md §4.1 "endFactor/midFactor policy".
func (r *parseRun) edgeFactor(pos int) float64 {
	if pos == 0 || pos == r.n-1 {
		return r.cfg.EndFactor
	}
	return r.cfg.MidFactor
}

// mainLoop is spec.md §4.1's "Main loop": pop the best edge, extend it, and
// keep going until the heap empties or the pop/overparsing budget is spent.
func (r *parseRun) mainLoop() error {
	var lastMerit = -1.0 // -1 sentinel: no pop yet
	for r.heap.Len() > 0 {
		if r.popCount >= r.cfg.RuleCountTimeout {
			if r.rootItem != nil {
				break
			}
			return &TimeoutFailure{PopCount: r.popCount}
		}
		if r.rootFirstSeen > 0 && float64(r.popCount) >= float64(r.rootFirstSeen)*r.cfg.TimeFactor {
			break
		}
		e := r.heap.PopBest()
		r.popCount++
		if lastMerit >= 0 && e.Merit() > lastMerit+1e-9 {
			T().Errorf("chart: monotone merit bound violated: %f after %f", e.Merit(), lastMerit)
		}
		lastMerit = e.Merit()

		r.step(e)
	}
	return nil
}

// step processes one popped edge: spec.md §4.1 steps 2-5.
func (r *parseRun) step(e *Edge) {
	if e.IsFinished() {
		sp := span.New(e.Start, e.Junction())
		if r.guidedReject(sp, e.LHS) {
			return
		}
		item, isNew := r.chart.AddOrMerge(e.LHS, sp, e.Inside, e)
		if isNew {
			item.HeadWord = r.headWordFor(e)
			item.AddDerivation(&Derivation{
				Tree:    r.buildTree(e),
				LogProb: safeLog(e.Inside),
			})
			if e.LHS == r.p.Symbols.Root && sp.From() == 0 && sp.To() == r.n {
				r.rootItem = item
				if r.rootFirstSeen == 0 {
					r.rootFirstSeen = r.popCount
				}
			}
		}
		r.extendFrom(item)
		r.triggerNeeding(item)
		return
	}
	// An active (not-yet-finished) N-ary edge was re-popped: a daughter it
	// needs may have completed since it was registered (spec.md §4.1 step
	// 4's needing-edges mechanism covers the common case, but this catches
	// one predicted before registration raced ahead of chart growth). If
	// it still can't continue, apply a demerit (step 5) and let it sit
	// back on the heap, registered again, at its reduced merit.
	needed := e.RHS[e.Dot].ID
	for _, cand := range r.chart.ItemsStartingAt(e.Junction()) {
		if cand.LHS.ID != needed {
			continue
		}
		prevInside := e.Inside
		next := e.extend(0, cand, cand.Span.To())
		r.chart.trackEdge(next)
		next.Inside = prevInside * cand.Inside
		r.advanceActive(next)
		return
	}
	if e.ApplyDemerit(r.cfg.DemeritFactor, r.cfg.MaxDemerits) {
		return
	}
	r.chart.RegisterNeeding(e, needed)
	r.heap.Insert(e)
}

// guidedReject reports whether sp/lhs must be rejected under the active
// span constraints (spec.md §4.1 "Guided-mode").
func (r *parseRun) guidedReject(sp span.Span, lhs *symbol.Symbol) bool {
	if len(r.constraints) == 0 {
		return false
	}
	for _, c := range r.constraints {
		if c.Span.Len() < r.cfg.MinConstrainedSpanLength {
			continue
		}
		if sp == c.Span {
			return lhs != c.LHS
		}
		if sp.Crosses(c.Span) {
			return true
		}
	}
	return false
}

// extendFrom generates every binary/unary combination a newly-finished item
// enables: combining with adjacent finished items to its right (this item
// is the left child) and to its left (this item is the right child), plus
// unary projection, per spec.md §4.1 steps 3-4. It also predicts the
// active N-ary edges item starts (step 4's "needing edges" mechanism).
func (r *parseRun) extendFrom(item *Item) {
	for _, right := range r.chart.ItemsStartingAt(item.Span.To()) {
		r.tryBinary(item, right)
	}
	for _, left := range r.chart.ItemsEndingAt(item.Span.From()) {
		if left == item {
			continue
		}
		r.tryBinary(left, item)
	}
	r.tryUnary(item)
	r.predictMultiary(item)
}

// admissible applies nttCounts.txt's per-nonterminal training counts as a
// cheap pre-filter: a parent with a recorded count of exactly zero never
// occurred in training and is rejected before any model query is attempted
// (spec.md §6). A grammar with no counts loaded imposes no extra filtering.
func (r *parseRun) admissible(nt symbol.ID) bool {
	return r.p.Grammar.Count(nt) != 0
}

// headWordFor determines a newly-finished edge's head word: the word itself
// for a preterminal seed, or the head daughter's own head word otherwise,
// per headInfo.txt's recorded head index (spec.md §3 "Item.HeadWord").
func (r *parseRun) headWordFor(e *Edge) *symbol.Word {
	if e.RHS == nil {
		w := r.sentence.Words[e.Start]
		return &w
	}
	children := edgeChildren(e)
	if len(children) == 0 {
		return nil
	}
	rhsIDs := make([]symbol.ID, len(e.RHS))
	for i, s := range e.RHS {
		rhsIDs[i] = s.ID
	}
	idx := r.p.Grammar.HeadIndex(e.LHS.ID, rhsIDs)
	if idx < 0 || idx >= len(children) {
		idx = 0
	}
	return children[idx].HeadWord
}

// predictMultiary starts every arity-≥3 rule item begins (spec.md §4.1 step
// 4): one active edge per rule, with the dot advanced past item itself, then
// immediately tries to advance it as far as the chart already allows.
func (r *parseRun) predictMultiary(item *Item) {
	for _, rule := range r.p.Grammar.RulesStartingWith(item.LHS.ID) {
		if !r.admissible(rule.Parent) {
			continue
		}
		parentSym := r.p.Symbols.ByID(rule.Parent)
		if parentSym == nil {
			continue
		}
		rhsSyms := make([]*symbol.Symbol, len(rule.RHS))
		ok := true
		for i, id := range rule.RHS {
			s := r.p.Symbols.ByID(id)
			if s == nil {
				ok = false
				break
			}
			rhsSyms[i] = s
		}
		if !ok {
			continue
		}
		active := &Edge{
			LHS:       parentSym,
			RHS:       rhsSyms,
			Dot:       1,
			Start:     item.Span.From(),
			junction:  item.Span.To(),
			ItemPtr:   item,
			Inside:    item.Inside,
			HeapIndex: -1,
		}
		r.chart.trackEdge(active)
		item.NeededBy.Add(active)
		r.advanceActive(active)
	}
}

// advanceActive extends an active N-ary edge as far as already-completed
// chart items allow, then either completes the rule (completeMultiary) or
// registers it as needing whatever daughter comes next (spec.md §4.1 step
// 4), pushing it onto the heap so a later re-pop can still retry (step 5).
func (r *parseRun) advanceActive(e *Edge) {
	for !e.IsFinished() {
		needed := e.RHS[e.Dot].ID
		var next *Item
		for _, cand := range r.chart.ItemsStartingAt(e.Junction()) {
			if cand.LHS.ID == needed {
				next = cand
				break
			}
		}
		if next == nil {
			break
		}
		prevInside := e.Inside
		e = e.extend(0, next, next.Span.To())
		r.chart.trackEdge(e)
		e.Inside = prevInside * next.Inside
	}
	if e.IsFinished() {
		r.completeMultiary(e)
		return
	}
	r.chart.RegisterNeeding(e, e.RHS[e.Dot].ID)
	outside := r.outsideEstimate(e.LHS, span.New(e.Start, e.Junction()))
	e.SetMerit(e.Inside * outside * r.edgeFactor(e.Start))
	if err := r.heap.Insert(e); err != nil {
		T().Infof("chart: %v", err)
	}
}

// completeMultiary folds in the rule's own probability once every daughter
// of an arity-≥3 rule has been consumed, then files the finished edge the
// same way tryBinary/tryUnary do (spec.md §4.1 step 3).
func (r *parseRun) completeMultiary(e *Edge) {
	rhsIDs := make([]symbol.ID, len(e.RHS))
	hist := make(model.History, len(e.RHS))
	for i, s := range e.RHS {
		rhsIDs[i] = s.ID
		hist[i] = int32(s.ID)
	}
	event := ruleEventN(e.LHS.ID, rhsIDs)
	ruleProb, err := r.p.Model.Prob(model.CalcRule, event, hist)
	if err != nil || ruleProb <= 0 {
		return
	}
	sp := span.New(e.Start, e.Junction())
	e.Inside *= ruleProb
	e.RuleProb = ruleProb
	outside := r.outsideEstimate(e.LHS, sp)
	e.SetMerit(e.Inside * outside * r.edgeFactor(sp.From()))
	r.insertDeduped(e)
}

// triggerNeeding resumes every active edge registered as needing item,
// advancing each one now that item has completed (spec.md §4.1 step 4).
func (r *parseRun) triggerNeeding(item *Item) {
	for _, e := range r.chart.DrainNeeding(item) {
		prevInside := e.Inside
		next := e.extend(0, item, item.Span.To())
		r.chart.trackEdge(next)
		next.Inside = prevInside * item.Inside
		r.advanceActive(next)
	}
}

// tryBinary combines a completed left and right item under every
// admissible parent category. The rule application is represented as two
// chained edges, the same Pred/ItemPtr shape a genuine N-ary rule's chain
// takes under Edge.extend: an "active" edge that has just consumed left,
// then the finished edge produced by consuming right. This keeps
// edgeSignature's and buildTree's Pred-walk uniform between binary, unary
// and N-ary rules. Binary/unary get this direct fast path rather than
// going through predictMultiary/advanceActive because extendFrom only
// runs once both daughters already exist — there's nothing to wait on.
func (r *parseRun) tryBinary(left, right *Item) {
	for _, parent := range r.p.Grammar.BinaryParents(left.LHS.ID, right.LHS.ID) {
		if !r.admissible(parent) {
			continue
		}
		parentSym := r.p.Symbols.ByID(parent)
		if parentSym == nil {
			continue
		}
		sp := left.Span.Extend(right.Span)
		hist := model.History{int32(left.LHS.ID), int32(right.LHS.ID)}
		event := ruleEvent(parent, left.LHS.ID, right.LHS.ID)
		ruleProb, err := r.p.Model.Prob(model.CalcRule, event, hist)
		if err != nil || ruleProb <= 0 {
			continue
		}
		inside := left.Inside * right.Inside * ruleProb
		outside := r.outsideEstimate(parentSym, sp)
		merit := inside * outside * r.edgeFactor(sp.From())

		active := &Edge{
			LHS:       parentSym,
			RHS:       []*symbol.Symbol{left.LHS, right.LHS},
			Dot:       1,
			Start:     left.Span.From(),
			junction:  left.Span.To(),
			ItemPtr:   left,
			HeapIndex: -1,
		}
		r.chart.trackEdge(active)
		finished := active.extend(0, right, sp.To())
		finished.Inside = inside
		finished.RuleProb = ruleProb
		finished.SetMerit(merit)
		r.chart.trackEdge(finished)
		r.insertDeduped(finished)
	}
}

// tryUnary projects item through every admissible unary parent, using the
// same active/finished chaining as tryBinary with a single-symbol RHS.
func (r *parseRun) tryUnary(item *Item) {
	for _, parent := range r.p.Grammar.UnaryParents(item.LHS.ID) {
		if !r.admissible(parent) {
			continue
		}
		parentSym := r.p.Symbols.ByID(parent)
		if parentSym == nil {
			continue
		}
		event := unaryEvent(parent, item.LHS.ID)
		hist := model.History{int32(item.LHS.ID)}
		unaryProb, err := r.p.Model.Prob(model.CalcUnary, event, hist)
		if err != nil || unaryProb <= 0 {
			continue
		}
		inside := item.Inside * unaryProb
		outside := r.outsideEstimate(parentSym, item.Span)
		merit := inside * outside * r.edgeFactor(item.Span.From())

		active := &Edge{
			LHS:       parentSym,
			RHS:       []*symbol.Symbol{item.LHS},
			Dot:       0,
			Start:     item.Span.From(),
			junction:  item.Span.From(),
			HeapIndex: -1,
		}
		r.chart.trackEdge(active)
		finished := active.extend(0, item, item.Span.To())
		finished.Inside = inside
		finished.RuleProb = unaryProb
		finished.SetMerit(merit)
		r.chart.trackEdge(finished)
		r.insertDeduped(finished)
	}
}

// insertDeduped applies spec.md §4.1's duplicate policy: two edges with the
// same (LHS, dot position, signature of children) are merged, keeping the
// larger inside probability.
func (r *parseRun) insertDeduped(e *Edge) {
	sig := edgeSignature(e)
	if existing, ok := r.seen()[sig]; ok {
		if e.Inside > existing.Inside {
			existing.Inside = e.Inside
			existing.SetMerit(e.merit)
			r.heap.Fix(existing)
		}
		return
	}
	r.seen()[sig] = e
	if err := r.heap.Insert(e); err != nil {
		T().Infof("chart: %v", err)
	}
}

func (r *parseRun) seen() map[string]*Edge {
	if r.seenEdges == nil {
		r.seenEdges = make(map[string]*Edge)
	}
	return r.seenEdges
}

// outsideEstimate returns an upper-bound heuristic on the probability of
// the context surrounding sp, drawn from the model's prior/extra calc
// classes (spec.md §4.1 "merit"). Falls back to 1.0 (uninformative) if the
// calc class isn't loaded, so an under-specified model directory degrades
// to plain inside-probability best-first search rather than failing.
func (r *parseRun) outsideEstimate(lhs *symbol.Symbol, sp span.Span) float64 {
	hist := model.History{int32(lhs.ID)}
	p, err := r.p.Model.Prob(model.CalcPrior, int32(sp.Len()), hist)
	if err != nil {
		return 1.0
	}
	return p
}

func (r *parseRun) buildTree(e *Edge) *AnswerTree {
	if e.ItemPtr == nil && e.Pred == nil {
		// preterminal seed edge
		word := r.sentence.Words[e.Start]
		return &AnswerTree{Symbol: e.LHS, Word: &word}
	}
	kids := edgeChildren(e)
	children := make([]*AnswerTree, len(kids))
	for i, it := range kids {
		children[i] = treeFromItem(it)
	}
	return &AnswerTree{Symbol: e.LHS, Children: children}
}

func treeFromItem(it *Item) *AnswerTree {
	if d := it.NthDerivation(0); d != nil {
		return d.Tree
	}
	return &AnswerTree{Symbol: it.LHS}
}

func safeLog(p float64) float64 {
	if p <= 0 {
		return -1e18
	}
	return math.Log(p)
}
