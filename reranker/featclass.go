package reranker

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"strconv"
	"strings"
)

// FeatureClasses maps feature ids to a regularizer class (spec.md §4.3
// "Feature binning": each feature id is mapped to a class by parsing the
// feature's string identifier up to the first k ':' separators; all
// features sharing a class share a regularizer coefficient), grounded on
// cvlm-lbfgs.cc's read_featureclasses(). Feature ids absent from the
// loaded feat-file fall into class 0, the default class.
type FeatureClasses struct {
	classOf     []int32  // featno -> class index, class 0 by default
	classNames  []string // class index -> identifier prefix
	nameToClass map[string]int32
}

// NewFeatureClasses returns an empty class map with only the default
// class 0 ("") defined — the state cvlm-lbfgs is in when no -f feat-file
// is given, so every feature shares a single regularizer coefficient.
func NewFeatureClasses() *FeatureClasses {
	return &FeatureClasses{
		classNames:  []string{""},
		nameToClass: map[string]int32{"": 0},
	}
}

// NumClasses reports how many distinct regularizer classes are known.
func (fc *FeatureClasses) NumClasses() int { return len(fc.classNames) }

// ClassOf returns the regularizer class of a feature id, defaulting to
// class 0 for any feature the feat-file did not mention.
func (fc *FeatureClasses) ClassOf(feature int32) int32 {
	if int(feature) < len(fc.classOf) {
		return fc.classOf[feature]
	}
	return 0
}

// ClassName returns the textual identifier prefix a class was derived
// from, mostly useful for diagnostic logging.
func (fc *FeatureClasses) ClassName(class int32) string {
	if int(class) < len(fc.classNames) {
		return fc.classNames[class]
	}
	return ""
}

// classFor interns an identifier prefix, returning its (possibly new)
// class index.
func (fc *FeatureClasses) classFor(identifier string) int32 {
	if cl, ok := fc.nameToClass[identifier]; ok {
		return cl
	}
	cl := int32(len(fc.classNames))
	fc.classNames = append(fc.classNames, identifier)
	fc.nameToClass[identifier] = cl
	return cl
}

// set records the regularizer class of featno, growing classOf as needed.
func (fc *FeatureClasses) set(featno int32, class int32) {
	if int(featno) >= len(fc.classOf) {
		grown := make([]int32, featno+1)
		copy(grown, fc.classOf)
		fc.classOf = grown
	}
	fc.classOf[featno] = class
}

// LoadFeatureClasses reads a feat-file (spec.md §6's `-f featfile`
// CLI flag), transparently decompressing .gz/.bz2 the same way corpus
// files are, and bins every feature id it names into a regularizer class
// by its identifier's prefix up to nseparators ':' characters.
func LoadFeatureClasses(path string, nseparators int) (*FeatureClasses, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".bz2"):
		r = bzip2.NewReader(f)
	}
	return ReadFeatureClasses(r, nseparators)
}

// ReadFeatureClasses parses the feat-file format straight from r: each
// line is `<featno> <identifier><rest ignored>`, where identifier is read
// up to nseparators ':' characters or the first whitespace, whichever
// comes first (cvlm-lbfgs.cc's read_featureclasses()). A negative
// nseparators disables prefix truncation (the whole identifier is kept
// verbatim, one class per distinct feature name).
func ReadFeatureClasses(r io.Reader, nseparators int) (*FeatureClasses, error) {
	fc := NewFeatureClasses()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		featnoField, rest, ok := strings.Cut(line, " ")
		if !ok {
			featnoField, rest, ok = strings.Cut(line, "\t")
			if !ok {
				continue
			}
		}
		featno64, err := strconv.ParseInt(featnoField, 10, 32)
		if err != nil {
			continue
		}
		featno := int32(featno64)
		identifier := strings.TrimLeft(rest, " \t")
		identifier = featureIdentifierPrefix(identifier, nseparators)
		fc.set(featno, fc.classFor(identifier))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fc, nil
}

// featureIdentifierPrefix truncates s at the first whitespace, keeping at
// most nseparators ':'-delimited segments (a negative nseparators keeps
// the whole token).
func featureIdentifierPrefix(s string, nseparators int) string {
	var b strings.Builder
	seps := 0
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			break
		}
		if r == ':' {
			seps++
			if nseparators >= 0 && seps > nseparators {
				break
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
