package model

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads every `<calc-name>.g`/`<calc-name>.lambdas` file pair found in
// dir and registers them into m, per spec.md §6's model directory layout.
// Unknown calc-name basenames are skipped with a trace warning rather than
// failing the whole load, since a model directory need not define every
// possible calc class.
func (m *Model) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("model: reading model dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".g") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".g")
		class, ok := ParseCalcClass(base)
		if !ok {
			T().Infof("model: skipping unrecognized calc file %s", e.Name())
			continue
		}
		spec, err := loadCalcSpec(class, filepath.Join(dir, e.Name()), filepath.Join(dir, base+".lambdas"))
		if err != nil {
			return fmt.Errorf("model: loading %s: %w", base, err)
		}
		m.Register(spec)
	}
	return nil
}

// loadCalcSpec parses a `.g` trie file and its companion `.lambdas` table.
//
// `.g` format (one record per line, depth-first preorder):
//
//	<nodeIndex> <parentIndex> <auxIndex|-1> <count> L <event> <factor> ... ; C <value>
//
// where <value> is the sub-feature value under which the parent node
// reaches this node; fields after it are ignored.
//
// `.lambdas` format:
//
//	<depth> <bucket> <lambda>
func loadCalcSpec(class CalcClass, gPath, lambdasPath string) (*CalcSpec, error) {
	nodes, root, err := parseGFile(gPath)
	if err != nil {
		return nil, err
	}
	lambda, err := parseLambdasFile(lambdasPath)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Seal()
	}
	return &CalcSpec{
		Class:       class,
		SubFeatures: defaultSubFeatures(class),
		Lambda:      lambda,
		Root:        root,
	}, nil
}

func parseGFile(path string) (map[int32]*Node, *Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening .g file: %w", err)
	}
	defer f.Close()

	nodes := make(map[int32]*Node)
	var root *Node
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, parentIdx, auxIdx, err := parseGLine(line, nodes)
		if err != nil {
			return nil, nil, err
		}
		nodes[n.Index] = n
		if parentIdx < 0 {
			root = n
		} else if parent, ok := nodes[parentIdx]; ok {
			parent.addChild(lineChildValue(line), n)
		}
		if auxIdx >= 0 {
			if aux, ok := nodes[auxIdx]; ok {
				n.Aux = aux
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading .g file: %w", err)
	}
	if root == nil {
		return nil, nil, fmt.Errorf(".g file defines no root node (parent == -1)")
	}
	return nodes, root, nil
}

// parseGLine parses one `.g` record into a Node plus its declared parent
// and auxiliary indices. The child-selector value (the conditioning
// sub-feature value that the parent uses to reach this node) follows the
// literal "C" marker and is extracted separately by lineChildValue.
func parseGLine(line string, nodes map[int32]*Node) (node *Node, parentIdx, auxIdx int32, err error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return nil, 0, 0, fmt.Errorf("malformed .g line %q", line)
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, 0, 0, fmt.Errorf(".g node index: %w", err)
	}
	pIdx, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, 0, 0, fmt.Errorf(".g parent index: %w", err)
	}
	aIdx, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, 0, 0, fmt.Errorf(".g aux index: %w", err)
	}
	count, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, 0, 0, fmt.Errorf(".g count: %w", err)
	}
	var parent *Node
	if pIdx >= 0 {
		parent = nodes[int32(pIdx)]
	}
	n := NewNode(int32(idx), parent)
	n.Count = count

	rest := fields[4:]
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case "L":
			event, everr := strconv.Atoi(rest[i+1])
			factor, ferr := strconv.ParseFloat(rest[i+2], 64)
			if everr != nil || ferr != nil {
				return nil, 0, 0, fmt.Errorf("malformed leaf in %q", line)
			}
			n.addLeaf(Leaf{Event: int32(event), Factor: factor})
			i += 3
		case ";", "C":
			i = len(rest) // child value handled separately by caller
		default:
			i++
		}
	}
	return n, int32(pIdx), int32(aIdx), nil
}

// lineChildValue extracts the conditioning feature value this node was
// reached by, stored as the field immediately after the literal "C" marker.
func lineChildValue(line string) int32 {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "C" && i+1 < len(fields) {
			if v, err := strconv.Atoi(fields[i+1]); err == nil {
				return int32(v)
			}
		}
	}
	return 0
}

func parseLambdasFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening .lambdas file: %w", err)
	}
	defer f.Close()
	var table [][]float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed .lambdas line %q", line)
		}
		depth, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf(".lambdas depth: %w", err)
		}
		bucket, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf(".lambdas bucket: %w", err)
		}
		lambda, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf(".lambdas value: %w", err)
		}
		for len(table) <= depth {
			table = append(table, nil)
		}
		for len(table[depth]) <= bucket {
			table[depth] = append(table[depth], 1.0)
		}
		table[depth][bucket] = lambda
	}
	return table, sc.Err()
}

// defaultSubFeatures returns a plausible sub-feature ordering per calc
// class; real model directories may use a different arity, but the back-off
// walk only consults len(History) so this is advisory metadata, not load
// bearing for Query correctness.
func defaultSubFeatures(class CalcClass) []SubFeature {
	switch class {
	case CalcRule:
		return []SubFeature{SubFeatParentCategory, SubFeatGrandparentCategory, SubFeatHeadTag}
	case CalcHead:
		return []SubFeature{SubFeatParentCategory, SubFeatHeadTag, SubFeatHeadWordClass}
	case CalcUnary:
		return []SubFeature{SubFeatParentCategory, SubFeatHeadTag}
	case CalcLeft:
		return []SubFeature{SubFeatParentCategory, SubFeatLeftSiblingCategory, SubFeatDistance}
	case CalcRight:
		return []SubFeature{SubFeatParentCategory, SubFeatRightSiblingCategory, SubFeatDistance}
	default:
		return []SubFeature{SubFeatParentCategory}
	}
}
