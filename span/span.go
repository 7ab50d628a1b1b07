// Package span provides a small shared geometry type used throughout the
// parser: a half-open range of token positions [from, to) within a sentence.
package span

import "fmt"

// Span denotes a start position and the position just behind the end,
// i.e. a half-open interval [From, To) of token indices within a sentence.
type Span [2]int

// New creates a span [from, to).
func New(from, to int) Span {
	return Span{from, to}
}

// From returns the start position of the span.
func (s Span) From() int { return s[0] }

// To returns the position just past the end of the span.
func (s Span) To() int { return s[1] }

// Len returns the number of tokens covered by the span.
func (s Span) Len() int { return s[1] - s[0] }

// IsNull returns true for the zero span.
func (s Span) IsNull() bool { return s == Span{} }

// Extend returns the smallest span covering both s and other.
func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

// Crosses reports whether s and other overlap without one containing the
// other — the condition the chart parser's guided mode rejects before
// inserting an edge on the heap.
func (s Span) Crosses(other Span) bool {
	if s.Contains(other) || other.Contains(s) {
		return false
	}
	return s[0] < other[1] && other[0] < s[1]
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s[0] <= other[0] && other[1] <= s[1]
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
