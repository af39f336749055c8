package layer

import (
	"math"
	"math/rand"

	"github.com/born-ml/volnet/internal/volume"
)

// Initializer fills the values of a freshly allocated parameter volume.
type Initializer func(v *volume.Volume)

// GaussianInit draws weights from N(0, 1/fanIn), where fanIn is the number
// of elements in the volume (filter width*height*depth).
//
// A nil rng uses the global math/rand source.
func GaussianInit(rng *rand.Rand) Initializer {
	return func(v *volume.Volume) {
		scale := math.Sqrt(1.0 / float64(v.Len()))
		w := v.Weights()
		for i := range w {
			w[i] = normFloat64(rng) * scale
		}
	}
}

// XavierInit draws weights uniformly from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
//
// fanIn is the element count of the volume being filled. For a conv
// filter a typical fanOut is filterCount*filterWidth*filterHeight.
func XavierInit(rng *rand.Rand, fanOut int) Initializer {
	return func(v *volume.Volume) {
		bound := math.Sqrt(6.0 / float64(v.Len()+fanOut))
		w := v.Weights()
		for i := range w {
			w[i] = (float64Rand(rng)*2.0 - 1.0) * bound
		}
	}
}

// ConstantInit sets every weight to c.
func ConstantInit(c float64) Initializer {
	return func(v *volume.Volume) {
		v.SetConst(c)
	}
}

//nolint:gosec // Using math/rand for weight initialization (not security-critical)
func normFloat64(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.NormFloat64()
	}
	return rng.NormFloat64()
}

//nolint:gosec // Using math/rand for weight initialization (not security-critical)
func float64Rand(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}
