//go:build unix

package fstio

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// Mapped is a const transducer served straight from a read-only memory
// mapping. Close releases the mapping; the transducer must not be used
// afterwards.
type Mapped[W semiring.Weight[W]] struct {
	*fst.ConstFst[W]
	data []byte
}

// MapConst memory-maps the const container at path.
func MapConst[W semiring.Weight[W]](path string, codec WeightCodec[W]) (*Mapped[W], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fstio: map %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("fstio: map %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, &Error{Op: "map", Kind: KindTruncated, Path: path, Detail: "empty file"}
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("fstio: mmap %s: %w", path, err)
	}
	c, err := constFromBytes(data, codec)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, withPath(err, path)
	}
	Logger().Debug("mapped const fst",
		zap.String("path", path),
		zap.Int64("bytes", info.Size()),
		zap.Int("states", c.NumStates()))
	return &Mapped[W]{ConstFst: c, data: data}, nil
}

// Close unmaps the file.
func (m *Mapped[W]) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
