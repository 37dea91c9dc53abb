package fstio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// Format names a binary container.
type Format string

const (
	FormatVector Format = "vector"
	FormatConst  Format = "const"
)

// Read reads a vector or const container, whichever the header names.
func Read[W semiring.Weight[W]](r io.Reader, codec WeightCodec[W]) (fst.Fst[W], error) {
	br := &binReader{r: r}
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if err := checkTypes(h, "", codec.ArcType); err != nil {
		return nil, err
	}
	switch Format(h.FstType) {
	case FormatVector:
		f, err := readVectorBody(br, h, codec)
		if err != nil {
			return nil, err
		}
		return f, nil
	case FormatConst:
		f, err := readConstBody(br, h, codec)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, newError("read", KindUnsupported, fmt.Sprintf("fst type %q", h.FstType), nil)
	}
}

// Write writes f in the given container format.
func Write[W semiring.Weight[W]](w io.Writer, f fst.Fst[W], codec WeightCodec[W], format Format) error {
	switch format {
	case FormatVector:
		return WriteVector(w, f, codec)
	case FormatConst:
		return WriteConst(w, f, codec)
	default:
		return &Error{Op: "write", Kind: KindUnsupported, Detail: fmt.Sprintf("fst type %q", format)}
	}
}

// openReader opens path for reading, decompressing .xz files on the fly.
func openReader(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fstio: open %s: %w", path, err)
	}
	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			file.Close()
			return nil, nil, &Error{Op: "open", Kind: KindCorrupt, Path: path, Detail: "xz stream", Cause: err}
		}
		r = bufio.NewReader(xr)
	}
	return r, file.Close, nil
}

// Open reads the container at path. Files ending in .xz are decompressed.
func Open[W semiring.Weight[W]](path string, codec WeightCodec[W]) (fst.Fst[W], error) {
	r, closeFn, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	f, err := Read(r, codec)
	if err != nil {
		return nil, withPath(err, path)
	}
	return f, nil
}

// ReadFileHeader reads only the header of the container at path.
func ReadFileHeader(path string) (*Header, error) {
	r, closeFn, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	h, err := ReadHeader(r)
	if err != nil {
		return nil, withPath(err, path)
	}
	return h, nil
}

// WriteFile writes f to path in the given format, xz-compressed when path
// ends in .xz.
func WriteFile[W semiring.Weight[W]](path string, f fst.Fst[W], codec WeightCodec[W], format Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fstio: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("fstio: close %s: %w", path, cerr)
		}
	}()
	bw := bufio.NewWriter(file)
	var w io.Writer = bw
	var xw *xz.Writer
	if strings.HasSuffix(path, ".xz") {
		xw, err = xz.NewWriter(bw)
		if err != nil {
			return fmt.Errorf("fstio: xz %s: %w", path, err)
		}
		w = xw
	}
	if err := Write(w, f, codec, format); err != nil {
		return err
	}
	if xw != nil {
		if err := xw.Close(); err != nil {
			return fmt.Errorf("fstio: xz %s: %w", path, err)
		}
	}
	return bw.Flush()
}
