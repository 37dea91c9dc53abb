package fstio

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// singleStart returns f, or a copy of it with one initial state of weight
// one, together with that state.
func singleStart[W semiring.Weight[W]](f fst.Fst[W]) (fst.Fst[W], fst.StateID) {
	inits := f.Initials()
	switch {
	case len(inits) == 0:
		return f, fst.NoState
	case len(inits) == 1 && semiring.IsOne(inits[0].Weight):
		return f, inits[0].State
	}
	c := fst.Copy(f)
	s := c.MakeSuperInitial()
	Logger().Debug("added super-initial state for serialization",
		zap.Int("initials", len(inits)),
		zap.Int("state", s))
	return c, s
}

func properties[W semiring.Weight[W]](f fst.Fst[W], base uint64) uint64 {
	if fst.IsAcceptor(f) {
		return base | propAcceptor
	}
	return base | propNotAcceptor
}

// WriteVector writes f in the vector container. Several or weighted initial
// states are first collapsed into a super-initial state.
func WriteVector[W semiring.Weight[W]](w io.Writer, f fst.Fst[W], codec WeightCodec[W]) error {
	f, start := singleStart(f)
	bw := &binWriter{w: w}
	writeHeader(bw, &Header{
		FstType:    "vector",
		ArcType:    codec.ArcType,
		Version:    vectorVersion,
		Properties: properties(f, propExpanded|propMutable),
		Start:      int64(start),
		NumStates:  int64(f.NumStates()),
		NumArcs:    int64(fst.NumArcsTotal(f)),
	})
	for s := 0; s < f.NumStates(); s++ {
		bw.float32(codec.Encode(f.Final(s)))
		bw.int64(int64(f.NumArcs(s)))
		for a := range f.Arcs(s) {
			bw.int32(a.ILabel)
			bw.int32(a.OLabel)
			bw.float32(codec.Encode(a.Weight))
			bw.int32(int32(a.NextState))
		}
	}
	return bw.err
}

// ReadVector reads a vector container whose arc type matches codec.
func ReadVector[W semiring.Weight[W]](r io.Reader, codec WeightCodec[W]) (*fst.VectorFst[W], error) {
	br := &binReader{r: r}
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if err := checkTypes(h, "vector", codec.ArcType); err != nil {
		return nil, err
	}
	return readVectorBody(br, h, codec)
}

func readVectorBody[W semiring.Weight[W]](br *binReader, h *Header, codec WeightCodec[W]) (*fst.VectorFst[W], error) {
	if h.Version > vectorVersion {
		return nil, newError("read", KindUnsupported, fmt.Sprintf("vector version %d", h.Version), nil)
	}
	type state struct {
		final W
		arcs  []fst.Arc[W]
	}
	// States are collected before building so that a truncated file fails
	// before the header's counts are trusted for allocation.
	var states []state
	for s := int64(0); s < h.NumStates; s++ {
		st := state{final: codec.Decode(br.float32())}
		n := br.int64()
		if br.err != nil {
			return nil, br.err
		}
		if n < 0 {
			return nil, newError("read", KindCorrupt, fmt.Sprintf("state %d has %d arcs", s, n), nil)
		}
		for i := int64(0); i < n; i++ {
			a := fst.Arc[W]{
				ILabel: br.int32(),
				OLabel: br.int32(),
				Weight: codec.Decode(br.float32()),
			}
			a.NextState = fst.StateID(br.int32())
			if br.err != nil {
				return nil, br.err
			}
			if a.NextState < 0 || int64(a.NextState) >= h.NumStates {
				return nil, newError("read", KindCorrupt, fmt.Sprintf("state %d arc %d targets %d", s, i, a.NextState), nil)
			}
			st.arcs = append(st.arcs, a)
		}
		states = append(states, st)
	}

	f := fst.NewVectorFst[W]()
	f.AddStates(len(states))
	for s, st := range states {
		f.SetFinal(s, st.final)
		for _, a := range st.arcs {
			f.AddArc(s, a)
		}
	}
	if h.Start >= 0 {
		f.SetInitial(fst.StateID(h.Start), semiring.One[W]())
	}
	Logger().Debug("read vector fst",
		zap.String("arc_type", h.ArcType),
		zap.Int64("states", h.NumStates),
		zap.Int64("arcs", h.NumArcs))
	return f, nil
}
