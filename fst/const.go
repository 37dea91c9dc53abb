package fst

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/ieee0824/wfst-go/semiring"
)

const (
	// ConstStateSize is the size of a state record: final weight (float32),
	// first arc position, arc count, input-epsilon and output-epsilon counts
	// (uint32 each).
	ConstStateSize = 20
	// ConstArcSize is the size of an arc record: input label, output label
	// (int32), weight (float32), next state (int32).
	ConstArcSize = 16
)

// ErrNotNormalized is returned when a transducer with several initial
// states, or a weighted one, is frozen into a ConstFst.
var ErrNotNormalized = errors.New("fst: const transducers need a single initial state of weight one")

// ConstFst is a read-only transducer over flat state and arc tables.
// The tables are little-endian byte slices, so they may alias a memory-mapped
// file. Weights are stored as float32 and decoded on access.
// A ConstFst is safe for concurrent use.
type ConstFst[W semiring.Weight[W]] struct {
	states    []byte
	arcs      []byte
	numStates int
	start     StateID
	decode    func(float32) W

	inOnce   sync.Once
	inDegree []int32
}

// NewConstFst wraps the given tables. It validates that every state's arc
// range and every arc target lies within bounds.
func NewConstFst[W semiring.Weight[W]](states, arcs []byte, start StateID, decode func(float32) W) (*ConstFst[W], error) {
	if len(states)%ConstStateSize != 0 {
		return nil, fmt.Errorf("fst: state table size %d is not a multiple of %d", len(states), ConstStateSize)
	}
	if len(arcs)%ConstArcSize != 0 {
		return nil, fmt.Errorf("fst: arc table size %d is not a multiple of %d", len(arcs), ConstArcSize)
	}
	f := &ConstFst[W]{
		states:    states,
		arcs:      arcs,
		numStates: len(states) / ConstStateSize,
		start:     start,
		decode:    decode,
	}
	if start != NoState && (start < 0 || start >= f.numStates) {
		return nil, fmt.Errorf("fst: start state %d out of range", start)
	}
	numArcs := uint64(len(arcs) / ConstArcSize)
	for s := 0; s < f.numStates; s++ {
		pos, n := f.arcRange(s)
		if uint64(pos)+uint64(n) > numArcs {
			return nil, fmt.Errorf("fst: state %d arcs [%d,%d) exceed arc table of %d", s, pos, pos+n, numArcs)
		}
	}
	for i := uint64(0); i < numArcs; i++ {
		next := int32(binary.LittleEndian.Uint32(arcs[i*ConstArcSize+12:]))
		if next < 0 || int(next) >= f.numStates {
			return nil, fmt.Errorf("fst: arc %d targets state %d out of range", i, next)
		}
	}
	return f, nil
}

// Freeze encodes f into a ConstFst. f must have at most one initial state,
// with weight one.
func Freeze[W semiring.Weight[W]](f Fst[W], encode func(W) float32, decode func(float32) W) (*ConstFst[W], error) {
	inits := f.Initials()
	start := NoState
	switch len(inits) {
	case 0:
	case 1:
		if !semiring.IsOne(inits[0].Weight) {
			return nil, ErrNotNormalized
		}
		start = inits[0].State
	default:
		return nil, ErrNotNormalized
	}
	n := f.NumStates()
	states := make([]byte, n*ConstStateSize)
	arcs := make([]byte, NumArcsTotal(f)*ConstArcSize)
	pos := 0
	for s := 0; s < n; s++ {
		rec := states[s*ConstStateSize:]
		var niEps, noEps, narcs uint32
		for a := range f.Arcs(s) {
			ar := arcs[(pos+int(narcs))*ConstArcSize:]
			binary.LittleEndian.PutUint32(ar[0:], uint32(a.ILabel))
			binary.LittleEndian.PutUint32(ar[4:], uint32(a.OLabel))
			binary.LittleEndian.PutUint32(ar[8:], math.Float32bits(encode(a.Weight)))
			binary.LittleEndian.PutUint32(ar[12:], uint32(a.NextState))
			if a.ILabel == Epsilon {
				niEps++
			}
			if a.OLabel == Epsilon {
				noEps++
			}
			narcs++
		}
		binary.LittleEndian.PutUint32(rec[0:], math.Float32bits(encode(f.Final(s))))
		binary.LittleEndian.PutUint32(rec[4:], uint32(pos))
		binary.LittleEndian.PutUint32(rec[8:], narcs)
		binary.LittleEndian.PutUint32(rec[12:], niEps)
		binary.LittleEndian.PutUint32(rec[16:], noEps)
		pos += int(narcs)
	}
	return NewConstFst(states, arcs, start, decode)
}

func (f *ConstFst[W]) record(s StateID) []byte {
	if s < 0 || s >= f.numStates {
		panic(fmt.Sprintf("fst: state %d out of range [0,%d)", s, f.numStates))
	}
	return f.states[s*ConstStateSize : (s+1)*ConstStateSize]
}

func (f *ConstFst[W]) arcRange(s StateID) (pos, n uint32) {
	rec := f.record(s)
	return binary.LittleEndian.Uint32(rec[4:]), binary.LittleEndian.Uint32(rec[8:])
}

func (f *ConstFst[W]) NumStates() int { return f.numStates }

func (f *ConstFst[W]) Initials() []Initial[W] {
	if f.start == NoState {
		return nil
	}
	return []Initial[W]{{State: f.start, Weight: semiring.One[W]()}}
}

func (f *ConstFst[W]) Final(s StateID) W {
	return f.decode(math.Float32frombits(binary.LittleEndian.Uint32(f.record(s))))
}

func (f *ConstFst[W]) NumArcs(s StateID) int {
	_, n := f.arcRange(s)
	return int(n)
}

// NumInputEpsilons returns the number of arcs leaving s with input epsilon.
func (f *ConstFst[W]) NumInputEpsilons(s StateID) int {
	return int(binary.LittleEndian.Uint32(f.record(s)[12:]))
}

// NumOutputEpsilons returns the number of arcs leaving s with output epsilon.
func (f *ConstFst[W]) NumOutputEpsilons(s StateID) int {
	return int(binary.LittleEndian.Uint32(f.record(s)[16:]))
}

func (f *ConstFst[W]) arc(i uint32) Arc[W] {
	b := f.arcs[int(i)*ConstArcSize:]
	return Arc[W]{
		ILabel:    Label(binary.LittleEndian.Uint32(b[0:])),
		OLabel:    Label(binary.LittleEndian.Uint32(b[4:])),
		Weight:    f.decode(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		NextState: StateID(int32(binary.LittleEndian.Uint32(b[12:]))),
	}
}

func (f *ConstFst[W]) Arcs(s StateID) iter.Seq[Arc[W]] {
	pos, n := f.arcRange(s)
	return func(yield func(Arc[W]) bool) {
		for i := pos; i < pos+n; i++ {
			if !yield(f.arc(i)) {
				return
			}
		}
	}
}

func (f *ConstFst[W]) InDegree(s StateID) int {
	f.record(s)
	f.inOnce.Do(func() {
		f.inDegree = make([]int32, f.numStates)
		for i := 0; i < len(f.arcs)/ConstArcSize; i++ {
			next := binary.LittleEndian.Uint32(f.arcs[i*ConstArcSize+12:])
			f.inDegree[next]++
		}
	})
	return int(f.inDegree[s])
}

// Start returns the start state, or NoState for an empty transducer.
func (f *ConstFst[W]) Start() StateID { return f.start }

// StateTable returns the raw state records.
func (f *ConstFst[W]) StateTable() []byte { return f.states }

// ArcTable returns the raw arc records.
func (f *ConstFst[W]) ArcTable() []byte { return f.arcs }
