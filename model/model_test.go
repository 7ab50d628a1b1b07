package model

import "testing"

// buildTinyTrie builds: root (count=100) --value=5--> child (count=10),
// with a leaf for event 1 at the root (factor 0.2) and a more specific leaf
// for event 1 at the child (factor 0.9).
func buildTinyTrie() *Node {
	root := NewNode(0, nil)
	root.Count = 100
	root.addLeaf(Leaf{Event: 1, Factor: 0.2})
	root.addLeaf(Leaf{Event: 2, Factor: 0.8})

	child := NewNode(1, root)
	child.Count = 10
	child.addLeaf(Leaf{Event: 1, Factor: 0.9})
	root.addChild(5, child)

	root.Seal()
	child.Seal()
	return root
}

func TestNodeInvariantsAfterSeal(t *testing.T) {
	root := buildTinyTrie()
	if !root.sortedLeavesInvariant() {
		t.Errorf("root leaves not sorted")
	}
	if !root.sortedChildrenInvariant() {
		t.Errorf("root children not sorted")
	}
}

func TestQueryBacksOffWhenNoChild(t *testing.T) {
	root := buildTinyTrie()
	spec := &CalcSpec{
		Class:       CalcRule,
		SubFeatures: []SubFeature{SubFeatParentCategory},
		Lambda:      [][]float64{{0.9}, {0.9}},
		Root:        root,
	}
	// history value 99 has no matching child: must back off to the root's
	// own contribution instead of erroring.
	p := spec.query(1, History{99}, 1e-20)
	if p <= 0 {
		t.Fatalf("expected positive backed-off probability, got %v", p)
	}
}

func TestQueryRefinesWithMoreSpecificHistory(t *testing.T) {
	root := buildTinyTrie()
	spec := &CalcSpec{
		Class:       CalcRule,
		SubFeatures: []SubFeature{SubFeatParentCategory},
		Lambda:      [][]float64{{0.3}, {0.9}},
		Root:        root,
	}
	pGeneral := spec.query(1, History{}, 1e-20)
	pSpecific := spec.query(1, History{5}, 1e-20)
	if pSpecific <= pGeneral {
		t.Errorf("expected specific history (child leaf factor 0.9) to raise p(event=1) above general %v, got %v", pGeneral, pSpecific)
	}
}

func TestModelProbUnloadedClassErrors(t *testing.T) {
	m := New()
	if _, err := m.Prob(CalcRule, 1, History{}); err == nil {
		t.Fatalf("expected ErrNotLoaded for an unregistered calc class")
	}
}

func TestModelProbFloorsUnknownEvent(t *testing.T) {
	root := buildTinyTrie()
	m := New()
	m.Floor = 1e-12
	m.Register(&CalcSpec{Class: CalcHead, SubFeatures: nil, Lambda: [][]float64{{1.0}}, Root: root})
	p, err := m.Prob(CalcHead, 9999, History{})
	if err != nil {
		t.Fatalf("Prob: %v", err)
	}
	if p != m.Floor {
		t.Errorf("expected floor probability %v for unknown event, got %v", m.Floor, p)
	}
}

func TestBucketForCountMonotonic(t *testing.T) {
	prev := -1
	for c := 0; c < 100; c++ {
		b := bucketForCount(c)
		if b < prev {
			t.Fatalf("bucketForCount not monotonic at %d: %d < %d", c, b, prev)
		}
		prev = b
	}
}
