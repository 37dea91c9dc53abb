package fstio

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// WriteConst writes f in the const container with 16-byte aligned tables.
func WriteConst[W semiring.Weight[W]](w io.Writer, f fst.Fst[W], codec WeightCodec[W]) error {
	g, _ := singleStart(f)
	c, ok := g.(*fst.ConstFst[W])
	if !ok {
		var err error
		c, err = fst.Freeze(g, codec.Encode, codec.Decode)
		if err != nil {
			return fmt.Errorf("fstio: freeze: %w", err)
		}
	}
	bw := &binWriter{w: w}
	writeHeader(bw, &Header{
		FstType:    "const",
		ArcType:    codec.ArcType,
		Version:    constVersion,
		Flags:      FlagAligned,
		Properties: properties[W](c, propExpanded),
		Start:      int64(c.Start()),
		NumStates:  int64(c.NumStates()),
		NumArcs:    int64(len(c.ArcTable()) / fst.ConstArcSize),
	})
	bw.align()
	bw.write(c.StateTable())
	bw.align()
	bw.write(c.ArcTable())
	return bw.err
}

// ReadConst reads a const container whose arc type matches codec.
func ReadConst[W semiring.Weight[W]](r io.Reader, codec WeightCodec[W]) (*fst.ConstFst[W], error) {
	br := &binReader{r: r}
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if err := checkTypes(h, "const", codec.ArcType); err != nil {
		return nil, err
	}
	return readConstBody(br, h, codec)
}

func readConstBody[W semiring.Weight[W]](br *binReader, h *Header, codec WeightCodec[W]) (*fst.ConstFst[W], error) {
	if h.Version > constVersion {
		return nil, newError("read", KindUnsupported, fmt.Sprintf("const version %d", h.Version), nil)
	}
	aligned := h.Flags&FlagAligned != 0
	if aligned {
		br.align()
	}
	states := br.bytes(h.NumStates * fst.ConstStateSize)
	if aligned {
		br.align()
	}
	arcs := br.bytes(h.NumArcs * fst.ConstArcSize)
	if br.err != nil {
		return nil, br.err
	}
	f, err := fst.NewConstFst(states, arcs, fst.StateID(h.Start), codec.Decode)
	if err != nil {
		return nil, newError("read", KindCorrupt, "const tables", err)
	}
	Logger().Debug("read const fst",
		zap.String("arc_type", h.ArcType),
		zap.Int64("states", h.NumStates),
		zap.Int64("arcs", h.NumArcs),
		zap.Bool("aligned", aligned))
	return f, nil
}

// tableOffsets returns where the state and arc tables start, given the
// header length.
func tableOffsets(h *Header, headerLen int64) (states, arcs int64) {
	pad := func(off int64) int64 {
		if h.Flags&FlagAligned == 0 || off%alignment == 0 {
			return off
		}
		return off + alignment - off%alignment
	}
	states = pad(headerLen)
	arcs = pad(states + h.NumStates*fst.ConstStateSize)
	return states, arcs
}

// constFromBytes builds a ConstFst whose tables alias data, a complete
// const container.
func constFromBytes[W semiring.Weight[W]](data []byte, codec WeightCodec[W]) (*fst.ConstFst[W], error) {
	br := &binReader{r: bytes.NewReader(data)}
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if err := checkTypes(h, "const", codec.ArcType); err != nil {
		return nil, err
	}
	if h.Version > constVersion {
		return nil, newError("map", KindUnsupported, fmt.Sprintf("const version %d", h.Version), nil)
	}
	so, ao := tableOffsets(h, br.off)
	end := ao + h.NumArcs*fst.ConstArcSize
	if end > int64(len(data)) || so+h.NumStates*fst.ConstStateSize > int64(len(data)) {
		return nil, newError("map", KindTruncated, fmt.Sprintf("tables end at %d, file has %d bytes", end, len(data)), nil)
	}
	states := data[so : so+h.NumStates*fst.ConstStateSize : so+h.NumStates*fst.ConstStateSize]
	arcs := data[ao:end:end]
	f, err := fst.NewConstFst(states, arcs, fst.StateID(h.Start), codec.Decode)
	if err != nil {
		return nil, newError("map", KindCorrupt, "const tables", err)
	}
	return f, nil
}
