/*
Package model implements C2, the smoothed conditional rule-probability
model: spec.md §4.2. It answers probability queries the chart parser (C1)
issues at every edge-extension and edge-completion step, combining
log-linear factor values drawn from a back-off trie of feature histories
into rule, head, and lexical probabilities.
*/
package model

import (
	"fmt"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

func T() tracing.Trace {
	return gtrace.SyntaxTracer
}

// ErrNotLoaded is returned by Prob when a calc class has no loaded trie —
// spec.md §4.2 "a query against an unloaded model aborts (configuration
// error)".
type ErrNotLoaded struct {
	Class CalcClass
}

func (e *ErrNotLoaded) Error() string {
	return fmt.Sprintf("model: calc class %s is not loaded", e.Class)
}

// Model owns one CalcSpec (sub-features, lambda table, trie) per calc
// class. It is built once at process start by Load and is immutable
// thereafter, so it can be shared across parsing threads without locking
// (spec.md §5 "Shared-resource policy").
type Model struct {
	specs [numCalcClasses]*CalcSpec
	// Floor is returned for a query about an unknown event, per spec.md
	// §4.2 "Failure semantics".
	Floor float64
}

// New creates an empty Model. Floor defaults to a small positive value;
// callers typically override it from config.ParserConfig.FloorProbability.
func New() *Model {
	return &Model{Floor: 1e-20}
}

// Register installs a loaded CalcSpec under its class. Called by Load once
// per `<calc-name>.g`/`.lambdas` file pair.
func (m *Model) Register(spec *CalcSpec) {
	m.specs[spec.Class] = spec
}

// Prob answers p(event | history) for the given calc class, per spec.md
// §4.2's query contract: `prob(calcClass, conditionedEvent, history) →
// float ∈ [0, 1]`.
//
// The implementation walks the trie from the most-general context (the
// root) downward, at each depth mixing in that node's leaf contribution
// with the interpolation weight for the current depth/count bucket, and
// stops descending (backs off) as soon as the trie has no child for the
// next sub-feature's value.
func (m *Model) Prob(class CalcClass, event int32, hist History) (float64, error) {
	spec := m.specs[class]
	if spec == nil {
		return 0, &ErrNotLoaded{Class: class}
	}
	return spec.query(event, hist, m.Floor), nil
}

// query performs the back-off walk described in spec.md §4.2: starting at
// the root, descend one sub-feature at a time (History[0] first), and at
// each visited node mix in that node's leaf contribution for `event`
// weighted by the lambda for the current depth and the node's observed
// count. When no child exists for the next sub-feature's value, stop
// descending (back off) — the accumulated mixture is the answer.
func (cs *CalcSpec) query(event int32, hist History, floor float64) float64 {
	node := cs.Root
	if node == nil {
		return floor
	}
	var prob float64
	depth := 0
	for {
		contribution := floor
		if leaf, ok := node.leaf(event); ok {
			contribution = leaf.Factor
		} else if node.Aux != nil {
			if leaf, ok := node.Aux.leaf(event); ok {
				contribution = leaf.Factor
			}
		}
		lambda := cs.lambdaFor(depth, node.Count)
		prob = lambda*contribution + (1-lambda)*prob
		if depth >= len(hist) {
			break
		}
		next := node.child(hist[depth])
		if next == nil {
			break
		}
		node = next
		depth++
	}
	if prob <= 0 {
		return floor
	}
	return prob
}
