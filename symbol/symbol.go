/*
Package symbol implements the fixed terminal/nonterminal inventory the
chart parser and the smoothed model are built on: a small closed table of
symbols loaded once from a model directory's terms.txt, plus the Word and
Sentence types that flow through the rest of the pipeline.

Symbol ids are small integers (≤200 nonterminals, ≤200 terminal tags), so
the table is addressed by plain slice index rather than a map once loaded.
*/
package symbol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to the global syntax tracer, following the teacher's per-package
// tracer-accessor idiom.
func T() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Class categorizes a symbol the way terms.txt does: nonterminal, one of two
// preterminal flavors, or one of several punctuation subclasses.
type Class int

// Class values, matching terms.txt's column 2 exactly.
const (
	NonTerminal Class = iota
	PreterminalClosed
	PreterminalOpen
	Punctuation
	Comma
	Colon
	Final
	Paren
)

func (c Class) String() string {
	switch c {
	case NonTerminal:
		return "NT"
	case PreterminalClosed:
		return "preterm-closed"
	case PreterminalOpen:
		return "preterm-open"
	case Punctuation:
		return "punct"
	case Comma:
		return "comma"
	case Colon:
		return "colon"
	case Final:
		return "final"
	case Paren:
		return "paren"
	default:
		return "?"
	}
}

// IsPunctuation reports whether c is one of the punctuation subclasses
// (terminal-p > 2 in the original terms.txt encoding).
func (c Class) IsPunctuation() bool { return c > PreterminalOpen }

// IsPreterminal reports whether symbols of class c may directly dominate a
// token (closed or open lexical class).
func (c Class) IsPreterminal() bool { return c == PreterminalClosed || c == PreterminalOpen }

// ID is the integer identity of a symbol within a Table.
type ID int32

// NoSymbol marks an absent/invalid symbol id.
const NoSymbol ID = -1

// Symbol is one entry of the terminal/nonterminal inventory.
type Symbol struct {
	ID    ID
	Name  string
	Class Class
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil-symbol>"
	}
	return s.Name
}

// Table is the fixed, immutable-after-load symbol inventory for one model.
// It is shared read-only across all parsing threads (§5 "Shared-resource
// policy").
type Table struct {
	symbols []*Symbol
	byName  map[string]*Symbol

	// Start and Stop are the two sentinels spec.md §3 requires: a
	// START-of-root symbol and a STOP symbol used as an artificial right
	// boundary during merit computation.
	Start *Symbol
	Stop  *Symbol
	// Root is the designated top-level nonterminal (e.g. "S1"/"TOP").
	Root *Symbol
}

// NewTable creates an empty table; use Load to populate it from terms.txt.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

// Load reads a terms.txt file: one line per symbol, `<name> <class>`. Order
// of appearance defines the integer id, as specified in spec.md §6.
func (t *Table) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("symbol: opening terms file: %w", err)
	}
	defer f.Close()
	return t.load(f)
}

func (t *Table) load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("symbol: malformed terms.txt line %q", line)
		}
		class, err := strconv.Atoi(fields[1])
		if err != nil || class < 0 || class > int(Paren) {
			return fmt.Errorf("symbol: bad class in line %q: %w", line, err)
		}
		t.add(fields[0], Class(class))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("symbol: reading terms file: %w", err)
	}
	t.Start = t.add("START", NonTerminal)
	t.Stop = t.add("STOP", NonTerminal)
	if root, ok := t.byName["S1"]; ok {
		t.Root = root
	} else if root, ok := t.byName["TOP"]; ok {
		t.Root = root
	}
	T().Infof("symbol: loaded %d symbols (root=%v)", len(t.symbols), t.Root)
	return nil
}

func (t *Table) add(name string, class Class) *Symbol {
	if s, ok := t.byName[name]; ok {
		return s
	}
	s := &Symbol{ID: ID(len(t.symbols)), Name: name, Class: class}
	t.symbols = append(t.symbols, s)
	t.byName[name] = s
	return s
}

// Lookup finds a symbol by name, or nil if unknown.
func (t *Table) Lookup(name string) *Symbol {
	return t.byName[name]
}

// ByID returns the symbol for id, or nil if out of range.
func (t *Table) ByID(id ID) *Symbol {
	if id < 0 || int(id) >= len(t.symbols) {
		return nil
	}
	return t.symbols[id]
}

// Len returns the number of loaded symbols, including the two sentinels.
func (t *Table) Len() int { return len(t.symbols) }

// All returns every symbol in id order. Callers must not mutate the slice.
func (t *Table) All() []*Symbol { return t.symbols }
