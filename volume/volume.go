// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package volume provides the public API for volumes, the dense
// width x height x depth arrays that flow between volnet layers.
//
// Values are stored in one flat buffer, indexed as (width*y + x)*depth + d.
// A parallel gradient buffer is allocated the first time a gradient is
// written.
//
// Example:
//
//	v := volume.New(28, 28, 1, 0)
//	v.Set(3, 4, 0, 0.5)
//	v.AddGradient(3, 4, 0, 1)
package volume

import (
	"math/rand"

	"github.com/born-ml/volnet/internal/volume"
)

// Volume is a width x height x depth array of values and their gradients.
type Volume = volume.Volume

// IndexError reports a coordinate outside a volume.
type IndexError = volume.IndexError

// New creates a volume with every value set to c.
func New(width, height, depth int, c float64) *Volume {
	return volume.New(width, height, depth, c)
}

// NewRandom creates a volume with Gaussian values scaled by
// sqrt(1/(width*height*depth)). A nil rng uses the global source.
func NewRandom(width, height, depth int, rng *rand.Rand) *Volume {
	return volume.NewRandom(width, height, depth, rng)
}

// FromSlice creates a volume holding a copy of data.
func FromSlice(width, height, depth int, data []float64) *Volume {
	return volume.FromSlice(width, height, depth, data)
}
