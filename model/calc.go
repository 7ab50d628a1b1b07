package model

// CalcClass names one of the ≤12 probability calculations the smoothed
// model supports, matching spec.md §4.2 ("rule prob, head prob, unary,
// main, left, right, ..."). Each owns its own sub-feature list, lambda
// table and trie.
type CalcClass int

// The calc classes named explicitly in spec.md §4.2 and §6 (the
// `<calc-name>.g`/`.lambdas` file pairs).
const (
	CalcRule CalcClass = iota
	CalcHead
	CalcUnary
	CalcMain
	CalcLeft
	CalcRight
	CalcPrior
	CalcExtra
	numCalcClasses
)

var calcNames = [numCalcClasses]string{
	CalcRule:  "rule",
	CalcHead:  "head",
	CalcUnary: "unary",
	CalcMain:  "main",
	CalcLeft:  "left",
	CalcRight: "right",
	CalcPrior: "prior",
	CalcExtra: "extra",
}

func (c CalcClass) String() string {
	if c < 0 || int(c) >= len(calcNames) {
		return "?"
	}
	return calcNames[c]
}

// ParseCalcClass maps a `<calc-name>` (the basename of a `.g`/`.lambdas`
// file pair) to its CalcClass, or false if unknown.
func ParseCalcClass(name string) (CalcClass, bool) {
	for i, n := range calcNames {
		if n == name {
			return CalcClass(i), true
		}
	}
	return 0, false
}

// SubFeature indexes into a fixed vocabulary of "sub-feature functions" —
// e.g. parent category, grandparent category, head tag, left-sibling
// category, head-lexeme class (spec.md §4.2). The functions themselves are
// computed by callers (the chart parser, which has the partial derivation
// in hand); the model only ever sees the resulting integer history.
type SubFeature int32

// Named sub-feature functions. Real grammars define more; this is the
// closed set the bundled calc classes are specified against.
const (
	SubFeatParentCategory SubFeature = iota
	SubFeatGrandparentCategory
	SubFeatHeadTag
	SubFeatHeadWordClass
	SubFeatLeftSiblingCategory
	SubFeatRightSiblingCategory
	SubFeatDistance
	SubFeatPunctuation
	SubFeatConjunction
)

// History is one conditioning context: a sequence of sub-feature values, in
// the same order as the owning CalcSpec's SubFeatures. History[0] is
// consumed first, nearest the root (the most general context); back-off
// drops from the end (the most specific), matching spec.md §4.2 ("Back-off proceeds by dropping the deepest
// sub-feature when the trie has no child for its value" — here "deepest"
// means furthest from the root, i.e. the last element).
type History []int32

// CalcSpec is the static shape of one calc class: which sub-features
// condition it, in what order, and the lambda (interpolation weight) table
// binned by count bucket.
type CalcSpec struct {
	Class       CalcClass
	SubFeatures []SubFeature
	// Lambda[subFeatureDepth][bucket] is the interpolation weight for
	// backing off at that depth, binned by the history count observed at
	// that node (spec.md §4.2 "lambda table λ[sub-feature][bucket]").
	Lambda [][]float64
	Root   *Node
}

// lambdaFor returns the interpolation weight for depth (number of
// sub-features consumed so far) and an observed history count, clamping the
// bucket index at the table's bounds.
func (cs *CalcSpec) lambdaFor(depth int, count int) float64 {
	if depth < 0 || depth >= len(cs.Lambda) {
		return 1.0
	}
	buckets := cs.Lambda[depth]
	if len(buckets) == 0 {
		return 1.0
	}
	bucket := bucketForCount(count)
	if bucket >= len(buckets) {
		bucket = len(buckets) - 1
	}
	return buckets[bucket]
}

// bucketForCount maps a raw occurrence count to a lambda bucket, using
// geometrically widening buckets (0-1, 2-3, 4-7, 8-15, ...) the way the
// original smoothing scheme bins sparse counts.
func bucketForCount(count int) int {
	if count <= 0 {
		return 0
	}
	bucket := 0
	width := 1
	for count > width {
		count -= width
		width *= 2
		bucket++
	}
	return bucket
}
