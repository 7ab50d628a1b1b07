/*
Package config collects the process-wide knobs that the original C++
source expressed as scattered global mutable state (Term::Language,
Bchart::Nth, static initialization flags — see spec.md §9 "Global mutable
state"). Here they live in one explicit ParserConfig, constructed once at
startup and passed by reference into the chart parser and smoothed model,
following the teacher's schuko/gconf idiom for string/bool/int lookups with
defaults (see lr/earley/parsetree.go's `gconf.GetBool("panic-on-parser-stuck")`).
*/
package config

import (
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

func T() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Language selects the language-specific behaviors the original source
// switched on Term::Language (e.g. whether isS() checks "S" or "IP").
type Language string

// Supported languages, matching the CLI's `-L En|Ch|Ar` flag (spec.md §6).
const (
	English Language = "En"
	Chinese Language = "Ch"
	Arabic  Language = "Ar"
)

// ParserConfig bundles all tunables of the chart parser and N-best
// extractor. Zero value is not ready to use; call Defaults().
type ParserConfig struct {
	Language Language

	// Nth is the N-best list size (AnsTreeHeap capacity).
	Nth int
	// MaxSentenceLength is MAXSENTLEN: sentences longer than this are
	// declined outright (spec.md §4.1, §8 scenario 3).
	MaxSentenceLength int
	// MaxNumThreads bounds the thread-slot pool (spec.md §5).
	MaxNumThreads int

	// EdgeHeapCapacity bounds the best-first agenda. Spec.md §9 flags the
	// original's fixed 370000 as a possible overflow source; we keep it
	// bounded by default but make it configurable rather than a compile
	// time constant, and surface OverflowFailure instead of asserting.
	EdgeHeapCapacity int

	// TimeFactor is the overparsing multiplier: once a root item
	// completes, the parser keeps popping until
	// popCountAtFirstRoot * TimeFactor pops have happened.
	TimeFactor float64
	// RuleCountTimeout is the hard per-sentence pop budget applied even
	// before any root is found.
	RuleCountTimeout int

	// DemeritFactor is multiplied into an edge's merit once per re-pop
	// that fails to complete it (spec.md §4.1 step 5).
	DemeritFactor float64
	// MaxDemerits bounds how many times an edge may be demerited before
	// it is discarded outright.
	MaxDemerits int

	// EndFactor and MidFactor bias edges that start at the sentence
	// boundary vs. mid-sentence (spec.md §4.1 "edge_factor").
	EndFactor float64
	MidFactor float64

	// MinConstrainedSpanLength is the minimum (end-start) a span
	// constraint is enforced for (spec.md §4.1 "guided mode"); evalTree's
	// retry raises this from 1 to 2 (spec.md §7).
	MinConstrainedSpanLength int

	// NBestExtractionCap bounds the N-best extractor's heap operations
	// (spec.md §4.1, §9 "undocumented 20000 cap... make it configurable").
	NBestExtractionCap int

	// FloorProbability is returned for queries against an unknown event in
	// the smoothed model (spec.md §4.2 "Failure semantics").
	FloorProbability float64

	// Verbosity controls the separate diagnostic log channel (spec.md §7).
	Verbosity tracing.TraceLevel
}

// Defaults returns the configuration the original source effectively used
// (values drawn from first-stage/PARSE/Bchart.h and Params.C), exposed
// through typed fields instead of scattered globals.
func Defaults() *ParserConfig {
	return &ParserConfig{
		Language:                 English,
		Nth:                      50,
		MaxSentenceLength:        400,
		MaxNumThreads:            8,
		EdgeHeapCapacity:         370000,
		TimeFactor:               1.3,
		RuleCountTimeout:         250000,
		DemeritFactor:            0.2,
		MaxDemerits:              12,
		EndFactor:                1.0,
		MidFactor:                0.92,
		MinConstrainedSpanLength: 1,
		NBestExtractionCap:       20000,
		FloorProbability:         1e-20,
		Verbosity:                tracing.LevelInfo,
	}
}

// LoadFromGConf overlays process-wide overrides registered in
// schuko/gconf (e.g. set by a CLI flag) onto cfg, mirroring the way the
// teacher reads `gconf.GetBool("panic-on-parser-stuck")`.
func (cfg *ParserConfig) LoadFromGConf() {
	if v, ok := gconf.GetInt("nth"); ok {
		cfg.Nth = v
	}
	if v, ok := gconf.GetInt("max-sentence-length"); ok {
		cfg.MaxSentenceLength = v
	}
	if v, ok := gconf.GetInt("edge-heap-capacity"); ok {
		cfg.EdgeHeapCapacity = v
	}
	if v, ok := gconf.GetString("language"); ok {
		cfg.Language = Language(v)
	}
	T().Infof("config: loaded parser config, Nth=%d maxlen=%d lang=%s", cfg.Nth, cfg.MaxSentenceLength, cfg.Language)
}

// ParserRuntime is the mutable, per-process companion to ParserConfig: it
// owns resources that are created once and shared read-only thereafter
// (loaded model data), as opposed to ParserConfig's scalar tunables.
// Splitting the two means a ParserConfig can be cloned/overridden per call
// without touching the (expensive to build) loaded data.
type ParserRuntime struct {
	Config *ParserConfig
	Slots  *ThreadSlots
}

// NewRuntime wires a config and a thread-slot pool sized from it.
func NewRuntime(cfg *ParserConfig) *ParserRuntime {
	return &ParserRuntime{
		Config: cfg,
		Slots:  NewThreadSlots(cfg.MaxNumThreads),
	}
}
