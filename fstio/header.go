package fstio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Magic opens every binary transducer file.
const Magic int32 = 2125659606

// Header flags.
const (
	FlagInputSymbols  int32 = 1
	FlagOutputSymbols int32 = 2
	FlagAligned       int32 = 4
)

// Property bits written to headers.
const (
	propExpanded    uint64 = 0x1
	propMutable     uint64 = 0x2
	propAcceptor    uint64 = 0x10000
	propNotAcceptor uint64 = 0x20000
)

const (
	vectorVersion = 2
	constVersion  = 2
	// Type strings longer than this are treated as corruption.
	maxTypeLen = 256
	alignment  = 16
)

// Header is the common preamble of the vector and const containers.
type Header struct {
	FstType    string
	ArcType    string
	Version    int32
	Flags      int32
	Properties uint64
	Start      int64
	NumStates  int64
	NumArcs    int64
}

// binReader reads little-endian values and remembers the first failure.
// off counts consumed bytes, which alignment padding is measured against.
type binReader struct {
	r   io.Reader
	off int64
	err error
	buf [8]byte
}

func (b *binReader) fill(p []byte) {
	if b.err != nil {
		return
	}
	n, err := io.ReadFull(b.r, p)
	b.off += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			b.err = newError("read", KindTruncated, fmt.Sprintf("unexpected end of data at offset %d", b.off), err)
		} else {
			b.err = newError("read", KindTruncated, "read failed", err)
		}
	}
}

func (b *binReader) uint32() uint32 {
	b.fill(b.buf[:4])
	if b.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b.buf[:4])
}

func (b *binReader) int32() int32 { return int32(b.uint32()) }

func (b *binReader) uint64() uint64 {
	b.fill(b.buf[:8])
	if b.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b.buf[:8])
}

func (b *binReader) int64() int64 { return int64(b.uint64()) }

func (b *binReader) float32() float32 { return math.Float32frombits(b.uint32()) }

func (b *binReader) string() string {
	n := b.int32()
	if b.err != nil {
		return ""
	}
	if n < 0 || n > maxTypeLen {
		b.err = newError("read", KindCorrupt, fmt.Sprintf("string length %d", n), nil)
		return ""
	}
	p := make([]byte, n)
	b.fill(p)
	return string(p)
}

// bytes reads n bytes, growing the buffer as data arrives so a corrupt
// length cannot force a huge allocation up front.
func (b *binReader) bytes(n int64) []byte {
	if b.err != nil {
		return nil
	}
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, b.r, n)
	b.off += got
	if err != nil {
		b.err = newError("read", KindTruncated, fmt.Sprintf("want %d bytes, got %d", n, got), err)
		return nil
	}
	return buf.Bytes()
}

func (b *binReader) align() {
	if pad := b.off % alignment; pad != 0 {
		b.bytes(alignment - pad)
	}
}

// binWriter is the writing counterpart of binReader.
type binWriter struct {
	w   io.Writer
	off int64
	err error
	buf [8]byte
}

func (b *binWriter) write(p []byte) {
	if b.err != nil {
		return
	}
	n, err := b.w.Write(p)
	b.off += int64(n)
	if err != nil {
		b.err = fmt.Errorf("fstio: write: %w", err)
	}
}

func (b *binWriter) uint32(v uint32) {
	binary.LittleEndian.PutUint32(b.buf[:4], v)
	b.write(b.buf[:4])
}

func (b *binWriter) int32(v int32) { b.uint32(uint32(v)) }

func (b *binWriter) uint64(v uint64) {
	binary.LittleEndian.PutUint64(b.buf[:8], v)
	b.write(b.buf[:8])
}

func (b *binWriter) int64(v int64) { b.uint64(uint64(v)) }

func (b *binWriter) float32(v float32) { b.uint32(math.Float32bits(v)) }

func (b *binWriter) string(s string) {
	b.int32(int32(len(s)))
	b.write([]byte(s))
}

func (b *binWriter) align() {
	if pad := b.off % alignment; pad != 0 {
		b.write(make([]byte, alignment-pad))
	}
}

// ReadHeader reads and validates the magic number and header fields.
func ReadHeader(r io.Reader) (*Header, error) {
	br := &binReader{r: r}
	return readHeader(br)
}

func readHeader(br *binReader) (*Header, error) {
	if m := br.int32(); br.err == nil && m != Magic {
		return nil, newError("read", KindBadMagic, fmt.Sprintf("got %d", m), nil)
	}
	h := &Header{
		FstType: br.string(),
		ArcType: br.string(),
	}
	h.Version = br.int32()
	h.Flags = br.int32()
	h.Properties = br.uint64()
	h.Start = br.int64()
	h.NumStates = br.int64()
	h.NumArcs = br.int64()
	if br.err != nil {
		return nil, br.err
	}
	if h.Flags&(FlagInputSymbols|FlagOutputSymbols) != 0 {
		return nil, newError("read", KindUnsupported, "embedded symbol tables", nil)
	}
	if h.NumStates < 0 || h.NumArcs < 0 {
		return nil, newError("read", KindCorrupt, fmt.Sprintf("%d states, %d arcs", h.NumStates, h.NumArcs), nil)
	}
	if h.Start < -1 || h.Start >= h.NumStates {
		return nil, newError("read", KindCorrupt, fmt.Sprintf("start state %d", h.Start), nil)
	}
	return h, nil
}

// WriteHeader writes h preceded by the magic number.
func WriteHeader(w io.Writer, h *Header) error {
	bw := &binWriter{w: w}
	writeHeader(bw, h)
	return bw.err
}

func writeHeader(bw *binWriter, h *Header) {
	bw.int32(Magic)
	bw.string(h.FstType)
	bw.string(h.ArcType)
	bw.int32(h.Version)
	bw.int32(h.Flags)
	bw.uint64(h.Properties)
	bw.int64(h.Start)
	bw.int64(h.NumStates)
	bw.int64(h.NumArcs)
}

func checkTypes(h *Header, fstType, arcType string) error {
	if fstType != "" && h.FstType != fstType {
		return newError("read", KindTypeMismatch, fmt.Sprintf("fst type %q, want %q", h.FstType, fstType), nil)
	}
	if h.ArcType != arcType {
		return newError("read", KindTypeMismatch, fmt.Sprintf("arc type %q, want %q", h.ArcType, arcType), nil)
	}
	return nil
}
