package decoder

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/internal/mathutil"
)

// Scorer returns the acoustic cost (negative log-likelihood) of emitting
// input label on the given frame. It must be a pure function of its
// arguments.
type Scorer interface {
	Score(label fst.Label, frame int, features []float64) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(label fst.Label, frame int, features []float64) float64

func (f ScorerFunc) Score(label fst.Label, frame int, features []float64) float64 {
	return f(label, frame, features)
}

// MatrixScorer scores from a precomputed matrix of per-frame
// log-likelihoods: column j holds label j+1. The cost is the negated,
// scaled entry, or +Inf when the frame or label is outside the matrix.
type MatrixScorer struct {
	LogLikes mathutil.Mat
	Scale    float64
}

// NewMatrixScorer returns a MatrixScorer with scale 1.
func NewMatrixScorer(logLikes mathutil.Mat) *MatrixScorer {
	return &MatrixScorer{LogLikes: logLikes, Scale: 1}
}

func (m *MatrixScorer) Score(label fst.Label, frame int, _ []float64) float64 {
	if frame < 0 || frame >= len(m.LogLikes) || label < 1 || int(label) > len(m.LogLikes[frame]) {
		return math.Inf(1)
	}
	return -m.Scale * m.LogLikes[frame][label-1]
}

// NumLabels returns the number of scorable labels.
func (m *MatrixScorer) NumLabels() int {
	if len(m.LogLikes) == 0 {
		return 0
	}
	return len(m.LogLikes[0])
}

// ReadFeatures reads a whitespace-separated matrix, one frame per line.
// Blank lines and lines starting with '#' are skipped. All rows must have
// the same width.
func ReadFeatures(r io.Reader) (mathutil.Mat, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var rows [][]float64
	cols := -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if cols >= 0 && len(fields) != cols {
			return nil, fmt.Errorf("features line %d: %d columns, want %d", lineNo, len(fields), cols)
		}
		cols = len(fields)
		row := make([]float64, cols)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("features line %d: %w", lineNo, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	if cols < 0 {
		return nil, nil
	}
	m := mathutil.NewMat(len(rows), cols)
	for i, row := range rows {
		copy(m[i], row)
	}
	return m, nil
}
