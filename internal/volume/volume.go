// Package volume implements the dense 3D array that flows between layers.
//
// A Volume holds width x height x depth values in a single flat buffer,
// addressed as (width*y + x)*depth + d, so the depth axis of one spatial
// cell is contiguous. A parallel gradient buffer of the same size carries
// dL/dvalue during backpropagation; it is allocated on first use.
package volume

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Volume is a width x height x depth array of values and their gradients.
//
// Dimensions are fixed at construction. Layers mutate values and gradients
// in place; the caller that created a volume owns it.
type Volume struct {
	width  int
	height int
	depth  int

	weights   []float64
	gradients []float64 // nil until a gradient is first written
}

// New creates a volume with every value set to c.
func New(width, height, depth int, c float64) *Volume {
	v := alloc(width, height, depth)
	if c != 0 {
		for i := range v.weights {
			v.weights[i] = c
		}
	}
	return v
}

// NewRandom creates a volume filled from N(0, 1/(width*height*depth)).
//
// Normalizing by the element count equalizes the output variance of units
// with many incoming connections. A nil rng uses the global source.
func NewRandom(width, height, depth int, rng *rand.Rand) *Volume {
	v := alloc(width, height, depth)
	scale := math.Sqrt(1.0 / float64(v.Len()))
	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	norm := rand.NormFloat64
	if rng != nil {
		norm = rng.NormFloat64
	}
	for i := range v.weights {
		v.weights[i] = norm() * scale
	}
	return v
}

// FromSlice creates a volume holding a copy of data.
//
// data must have exactly width*height*depth elements in volume order.
func FromSlice(width, height, depth int, data []float64) *Volume {
	v := alloc(width, height, depth)
	if len(data) != v.Len() {
		panic(fmt.Sprintf("volume: data length %d != %dx%dx%d = %d",
			len(data), width, height, depth, v.Len()))
	}
	copy(v.weights, data)
	return v
}

func alloc(width, height, depth int) *Volume {
	if width <= 0 {
		panic(fmt.Sprintf("volume: invalid width %d", width))
	}
	if height <= 0 {
		panic(fmt.Sprintf("volume: invalid height %d", height))
	}
	if depth <= 0 {
		panic(fmt.Sprintf("volume: invalid depth %d", depth))
	}
	return &Volume{
		width:   width,
		height:  height,
		depth:   depth,
		weights: make([]float64, width*height*depth),
	}
}

// Width returns the size of the x axis.
func (v *Volume) Width() int { return v.width }

// Height returns the size of the y axis.
func (v *Volume) Height() int { return v.height }

// Depth returns the size of the d axis.
func (v *Volume) Depth() int { return v.depth }

// Len returns width*height*depth.
func (v *Volume) Len() int { return len(v.weights) }

// Weights returns the value buffer. The slice aliases the volume.
func (v *Volume) Weights() []float64 { return v.weights }

// Gradients returns the gradient buffer, or nil if none was allocated yet.
// The slice aliases the volume.
func (v *Volume) Gradients() []float64 { return v.gradients }

// HasGradients reports whether the gradient buffer has been allocated.
func (v *Volume) HasGradients() bool { return v.gradients != nil }

// Index returns the flat buffer offset of (x, y, d).
func (v *Volume) Index(x, y, d int) int {
	if boundsCheck {
		v.checkBounds(x, y, d)
	}
	return ((v.width*y)+x)*v.depth + d
}

// Get returns the value at (x, y, d).
func (v *Volume) Get(x, y, d int) float64 {
	return v.weights[v.Index(x, y, d)]
}

// Set stores value at (x, y, d).
func (v *Volume) Set(x, y, d int, value float64) {
	v.weights[v.Index(x, y, d)] = value
}

// Add adds value to the value at (x, y, d).
func (v *Volume) Add(x, y, d int, value float64) {
	v.weights[v.Index(x, y, d)] += value
}

// GetGradient returns the gradient at (x, y, d). An unallocated gradient
// buffer reads as zero.
func (v *Volume) GetGradient(x, y, d int) float64 {
	i := v.Index(x, y, d)
	if v.gradients == nil {
		return 0
	}
	return v.gradients[i]
}

// SetGradient stores value as the gradient at (x, y, d).
func (v *Volume) SetGradient(x, y, d int, value float64) {
	i := v.Index(x, y, d)
	v.EnsureGradients()
	v.gradients[i] = value
}

// AddGradient accumulates delta into the gradient at (x, y, d).
//
// Several output positions may route gradient to the same coordinate, so
// this always adds and never overwrites.
func (v *Volume) AddGradient(x, y, d int, delta float64) {
	i := v.Index(x, y, d)
	v.EnsureGradients()
	v.gradients[i] += delta
}

// EnsureGradients allocates a zeroed gradient buffer if none exists.
// An existing buffer is left untouched.
func (v *Volume) EnsureGradients() {
	if v.gradients == nil {
		v.gradients = make([]float64, len(v.weights))
	}
}

// ZeroGradients allocates the gradient buffer or clears the existing one.
func (v *Volume) ZeroGradients() {
	if v.gradients == nil {
		v.gradients = make([]float64, len(v.weights))
		return
	}
	clear(v.gradients)
}

// SetConst sets every value to c.
func (v *Volume) SetConst(c float64) {
	for i := range v.weights {
		v.weights[i] = c
	}
}

// AddFrom adds the values of other element-wise.
func (v *Volume) AddFrom(other *Volume) {
	v.mustMatch(other)
	floats.Add(v.weights, other.weights)
}

// AddFromScaled adds a*other element-wise.
func (v *Volume) AddFromScaled(other *Volume, a float64) {
	v.mustMatch(other)
	floats.AddScaled(v.weights, a, other.weights)
}

// AddGradientsFrom accumulates the gradients of other into v.
// It is a no-op if other has no gradient buffer.
func (v *Volume) AddGradientsFrom(other *Volume) {
	v.mustMatch(other)
	if other.gradients == nil {
		return
	}
	v.EnsureGradients()
	floats.Add(v.gradients, other.gradients)
}

// Clone returns a copy of the values. The copy has no gradient buffer.
func (v *Volume) Clone() *Volume {
	c := alloc(v.width, v.height, v.depth)
	copy(c.weights, v.weights)
	return c
}

// CloneAndZero returns a zero-valued volume of the same shape.
func (v *Volume) CloneAndZero() *Volume {
	return alloc(v.width, v.height, v.depth)
}

// SameShape reports whether other has the same dimensions as v.
func (v *Volume) SameShape(other *Volume) bool {
	return v.width == other.width && v.height == other.height && v.depth == other.depth
}

// String returns the shape of the volume.
func (v *Volume) String() string {
	return fmt.Sprintf("Volume(%dx%dx%d)", v.width, v.height, v.depth)
}

func (v *Volume) mustMatch(other *Volume) {
	if !v.SameShape(other) {
		panic(fmt.Sprintf("volume: shape mismatch %s vs %s", v, other))
	}
}
