package acoustic

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/symbols"
)

// Model maps decoding-graph input labels to output densities. It is a
// decoder.Scorer: the cost of a label on a frame is the scaled negative
// log-likelihood of the frame's feature vector.
type Model struct {
	Dim   int
	Scale float64

	gmms map[fst.Label]*GMM
}

// NewModel returns an empty model of dimension dim with scale 1.
func NewModel(dim int) *Model {
	return &Model{Dim: dim, Scale: 1, gmms: map[fst.Label]*GMM{}}
}

// Add sets the density for label, replacing any previous one.
func (m *Model) Add(label fst.Label, g *GMM) error {
	if label <= fst.Epsilon {
		return fmt.Errorf("acoustic: invalid label %d", label)
	}
	if g.Dim != m.Dim {
		return fmt.Errorf("acoustic: label %d has dimension %d, model has %d", label, g.Dim, m.Dim)
	}
	m.gmms[label] = g
	return nil
}

// GMM returns the density for label.
func (m *Model) GMM(label fst.Label) (*GMM, bool) {
	g, ok := m.gmms[label]
	return g, ok
}

// Labels returns the modeled labels in ascending order.
func (m *Model) Labels() []fst.Label {
	out := make([]fst.Label, 0, len(m.gmms))
	for l := range m.gmms {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Score returns +Inf for unmodeled labels and for feature vectors of the
// wrong dimension, which makes the arc unusable.
func (m *Model) Score(label fst.Label, _ int, features []float64) float64 {
	g, ok := m.gmms[label]
	if !ok || len(features) != m.Dim {
		return math.Inf(1)
	}
	return -m.Scale * g.LogProb(features)
}

type modelFile struct {
	Dim    int         `yaml:"dim"`
	States []stateSpec `yaml:"states"`
}

type stateSpec struct {
	Label      string          `yaml:"label"`
	Components []componentSpec `yaml:"components"`
}

type componentSpec struct {
	// Weight defaults to 1/k when omitted.
	Weight   *float64  `yaml:"weight,omitempty"`
	Mean     []float64 `yaml:"mean,flow"`
	Variance []float64 `yaml:"variance,flow"`
}

// Load reads a YAML model. State labels are looked up in labels when it is
// non-nil and parsed as integers otherwise.
func Load(r io.Reader, labels *symbols.Table) (*Model, error) {
	var mf modelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("acoustic: decode model: %w", err)
	}
	if mf.Dim <= 0 {
		return nil, fmt.Errorf("acoustic: dim must be positive, got %d", mf.Dim)
	}
	m := NewModel(mf.Dim)
	for _, st := range mf.States {
		label, err := resolveLabel(st.Label, labels)
		if err != nil {
			return nil, err
		}
		if _, dup := m.gmms[label]; dup {
			return nil, fmt.Errorf("acoustic: duplicate state %q", st.Label)
		}
		comps := make([]Gaussian, len(st.Components))
		for i, c := range st.Components {
			w := 1 / float64(len(st.Components))
			if c.Weight != nil {
				w = *c.Weight
			}
			if w < 0 {
				return nil, fmt.Errorf("acoustic: state %q component %d: negative weight", st.Label, i)
			}
			comps[i] = Gaussian{Mean: c.Mean, Variance: c.Variance, LogWeight: math.Log(w)}
		}
		g, err := NewGMM(comps)
		if err != nil {
			return nil, fmt.Errorf("acoustic: state %q: %w", st.Label, err)
		}
		if err := m.Add(label, g); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string, labels *symbols.Table) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Load(f, labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func resolveLabel(s string, labels *symbols.Table) (fst.Label, error) {
	if labels != nil {
		l, ok := labels.Find(s)
		if !ok {
			return 0, fmt.Errorf("acoustic: unknown state label %q", s)
		}
		return l, nil
	}
	l, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("acoustic: state label %q: %w", s, err)
	}
	return fst.Label(l), nil
}

// Write stores m as YAML, naming states through labels when it is non-nil.
func (m *Model) Write(w io.Writer, labels *symbols.Table) error {
	mf := modelFile{Dim: m.Dim}
	for _, l := range m.Labels() {
		name := strconv.Itoa(int(l))
		if labels != nil {
			sym, ok := labels.Symbol(l)
			if !ok {
				return fmt.Errorf("acoustic: label %d has no symbol", l)
			}
			name = sym
		}
		st := stateSpec{Label: name}
		for _, c := range m.gmms[l].Components {
			weight := math.Exp(c.LogWeight)
			st.Components = append(st.Components, componentSpec{
				Weight:   &weight,
				Mean:     c.Mean,
				Variance: c.Variance,
			})
		}
		mf.States = append(mf.States, st)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&mf); err != nil {
		return err
	}
	return enc.Close()
}
