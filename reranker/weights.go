package reranker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteWeights writes w in the sparse weights-file format spec.md §6
// describes ("Weights output: one line per nonzero feature: <id> or
// <id>=<weight> if weight != 1"), grounded on cvlm-lbfgs.cc's final
// weights dump.
func WriteWeights(w io.Writer, weights []float64) error {
	bw := bufio.NewWriter(w)
	for id, v := range weights {
		if v == 0 {
			continue
		}
		if v == 1 {
			if _, err := fmt.Fprintf(bw, "%d\n", id); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d=%s\n", id, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteWeightsFile creates path and writes weights to it via WriteWeights.
func WriteWeightsFile(path string, weights []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteWeights(f, weights)
}

// ReadWeights reads a sparse weights file back into a dense vector of the
// given size, the inverse of WriteWeights.
func ReadWeights(r io.Reader, nfeatures int) ([]float64, error) {
	w := make([]float64, nfeatures)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		idPart, valPart, hasVal := strings.Cut(line, "=")
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, fmt.Errorf("bad weight id %q: %w", idPart, err)
		}
		v := 1.0
		if hasVal {
			v, err = strconv.ParseFloat(valPart, 64)
			if err != nil {
				return nil, fmt.Errorf("bad weight value %q: %w", valPart, err)
			}
		}
		if id >= len(w) {
			grown := make([]float64, id+1)
			copy(grown, w)
			w = grown
		}
		w[id] = v
	}
	return w, sc.Err()
}
