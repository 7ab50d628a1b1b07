/*
Smoothed-model feature trie: a back-off tree of feature histories, as
specified in spec.md §3 ("Smoothed-model feature tree") and §4.2. Each node
is immutable once loaded and shared read-only across parser threads. At
every node, the leaf array and the child array are strictly sorted by their
integer keys, enabling binary search — spec.md's invariant for this
structure — implemented here with golang.org/x/exp/slices, the one teacher
dependency (gorgo's go.mod lists it but never imports it) this repository
gives a concrete job to.
*/
package model

import "golang.org/x/exp/slices"

// Leaf holds one conditioned-event's smoothed probability contribution at a
// trie node.
type Leaf struct {
	Event  int32
	Factor float64
}

// childEdge is one sub-trie, indexed by the conditioning feature value that
// selects it.
type childEdge struct {
	Value int32
	Node  *Node
}

// Node is one trie node: an integer index, a parent back-pointer, an
// optional auxiliary child (spec.md §9 "FeatureTree auxiliary child" —
// contributes smoothing mass without consuming a conditioning slot), a
// sorted leaf array and a sorted child array.
type Node struct {
	Index   int32
	Parent  *Node
	Aux     *Node
	Count   int // number of training events observed at/below this node
	leaves  []Leaf
	childs  []childEdge
}

// NewNode creates an empty, not-yet-sealed node. Call Seal after all
// leaves/children have been added via addLeaf/addChild, to establish the
// sortedness invariant exactly once at load time.
func NewNode(index int32, parent *Node) *Node {
	return &Node{Index: index, Parent: parent}
}

func (n *Node) addLeaf(l Leaf) {
	n.leaves = append(n.leaves, l)
}

func (n *Node) addChild(value int32, child *Node) {
	n.childs = append(n.childs, childEdge{Value: value, Node: child})
}

// Seal sorts the leaf and child arrays by their integer keys, establishing
// the binary-searchable invariant. Must be called once per node after
// loading and before any Query.
func (n *Node) Seal() {
	slices.SortFunc(n.leaves, func(a, b Leaf) int { return cmpInt32(a.Event, b.Event) })
	slices.SortFunc(n.childs, func(a, b childEdge) int { return cmpInt32(a.Value, b.Value) })
}

// leaf finds the leaf for a conditioned event via binary search, or false
// if absent at this node.
func (n *Node) leaf(event int32) (Leaf, bool) {
	i, ok := slices.BinarySearchFunc(n.leaves, Leaf{Event: event}, func(a, b Leaf) int {
		switch {
		case a.Event < b.Event:
			return -1
		case a.Event > b.Event:
			return 1
		default:
			return 0
		}
	})
	if !ok {
		return Leaf{}, false
	}
	return n.leaves[i], true
}

// child finds the sub-trie for a conditioning feature value via binary
// search, or nil if absent.
func (n *Node) child(value int32) *Node {
	i, ok := slices.BinarySearchFunc(n.childs, childEdge{Value: value}, func(a, b childEdge) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		default:
			return 0
		}
	})
	if !ok {
		return nil
	}
	return n.childs[i].Node
}

// sortedLeavesInvariant and sortedChildrenInvariant are small predicates
// used by tests to check the spec.md §3 invariant directly.
func (n *Node) sortedLeavesInvariant() bool {
	return slices.IsSortedFunc(n.leaves, func(a, b Leaf) int { return cmpInt32(a.Event, b.Event) })
}

func (n *Node) sortedChildrenInvariant() bool {
	return slices.IsSortedFunc(n.childs, func(a, b childEdge) int { return cmpInt32(a.Value, b.Value) })
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
