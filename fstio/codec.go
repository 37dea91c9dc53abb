package fstio

import (
	"github.com/ieee0824/wfst-go/semiring"
)

// WeightCodec maps a weight type to its on-disk float32 form and arc type
// name.
type WeightCodec[W semiring.Weight[W]] struct {
	ArcType string
	Encode  func(W) float32
	Decode  func(float32) W
}

// Tropical is the codec of the "standard" arc type.
var Tropical = WeightCodec[semiring.Tropical]{
	ArcType: "standard",
	Encode:  func(w semiring.Tropical) float32 { return float32(w) },
	Decode:  func(v float32) semiring.Tropical { return semiring.Tropical(v) },
}

// Log is the codec of the "log" arc type.
var Log = WeightCodec[semiring.Log]{
	ArcType: "log",
	Encode:  func(w semiring.Log) float32 { return float32(w) },
	Decode:  func(v float32) semiring.Log { return semiring.Log(v) },
}
