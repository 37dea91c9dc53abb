//go:build !unix

package fstio

import (
	"fmt"
	"os"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// Mapped is a const transducer loaded from a file. On this platform the file
// is read into memory instead of being mapped.
type Mapped[W semiring.Weight[W]] struct {
	*fst.ConstFst[W]
}

// MapConst loads the const container at path.
func MapConst[W semiring.Weight[W]](path string, codec WeightCodec[W]) (*Mapped[W], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fstio: map %s: %w", path, err)
	}
	c, err := constFromBytes(data, codec)
	if err != nil {
		return nil, withPath(err, path)
	}
	return &Mapped[W]{ConstFst: c}, nil
}

// Close is a no-op.
func (m *Mapped[W]) Close() error { return nil }
