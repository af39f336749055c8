package layer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/volnet/internal/volume"
)

func newTestSequential(rng *rand.Rand) *Sequential {
	cfg := DefaultConvConfig()
	cfg.Init = GaussianInit(rng)

	first := cfg
	first.Pad = 1
	second := cfg
	second.Stride = 2

	return NewSequential(
		NewConvLayer(3, 3, 4, first),
		NewConvLayer(2, 2, 2, second),
	)
}

func TestSequential_InitChainsShapes(t *testing.T) {
	model := newTestSequential(nil)
	model.Init(8, 6, 3)

	first := model.Layer(0).(*ConvLayer)
	second := model.Layer(1).(*ConvLayer)

	// 3x3 pad 1 keeps 8x6, depth becomes 4.
	assert.Equal(t, 8, first.OutputWidth())
	assert.Equal(t, 6, first.OutputHeight())
	assert.Equal(t, 4, second.InputDepth())
	assert.Equal(t, 4, second.Filters()[0].Depth())

	// 2x2 stride 2 halves it.
	assert.Equal(t, 4, model.OutputWidth())
	assert.Equal(t, 3, model.OutputHeight())
	assert.Equal(t, 2, model.OutputDepth())
	assert.Equal(t, 2, model.Len())

	out := model.Forward(volume.New(8, 6, 3, 1), false)
	assert.Equal(t, "Volume(4x3x2)", out.String())
}

func TestSequential_ParametersInLayerOrder(t *testing.T) {
	model := newTestSequential(nil)
	model.Init(8, 6, 3)

	pgs := model.GetParametersAndGradients()
	// (4 filters + bias) + (2 filters + bias)
	require.Len(t, pgs, 8)

	first := model.Layer(0).(*ConvLayer)
	second := model.Layer(1).(*ConvLayer)
	assert.Same(t, &first.Filters()[0].Weights()[0], &pgs[0].Parameters[0])
	assert.Same(t, &first.Bias().Weights()[0], &pgs[4].Parameters[0])
	assert.Same(t, &second.Filters()[0].Weights()[0], &pgs[5].Parameters[0])
	assert.Same(t, &second.Bias().Weights()[0], &pgs[7].Parameters[0])
}

func TestSequential_BackwardMatchesNumericalGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	model := newTestSequential(rng)
	model.Init(6, 5, 2)

	input := volume.NewRandom(6, 5, 2, rng)
	out := model.Forward(input, true)

	r := make([]float64, out.Len())
	for i := range r {
		r[i] = rng.NormFloat64()
	}
	setUpstream(out, r)
	model.Backward()

	analytic := append([]float64(nil), input.Gradients()...)
	x0 := append([]float64(nil), input.Weights()...)
	numeric := fd.Gradient(nil, func(x []float64) float64 {
		copy(input.Weights(), x)
		return floats.Dot(r, model.Forward(input, false).Weights())
	}, x0, &fd.Settings{Formula: fd.Central, Step: 1e-6})

	require.Len(t, analytic, len(numeric))
	for i := range numeric {
		assert.InDelta(t, numeric[i], analytic[i], 1e-6, "input[%d]", i)
	}
}

func TestSequential_ZeroGradients(t *testing.T) {
	model := newTestSequential(nil)
	model.Init(4, 4, 1)

	out := model.Forward(volume.New(4, 4, 1, 1), true)
	setUpstream(out, ones(out.Len()))
	model.Backward()

	nonZero := false
	for _, pg := range model.GetParametersAndGradients() {
		for _, g := range pg.Gradients {
			nonZero = nonZero || g != 0
		}
	}
	require.True(t, nonZero)

	model.ZeroGradients()
	for _, pg := range model.GetParametersAndGradients() {
		assert.Equal(t, make([]float64, len(pg.Gradients)), pg.Gradients)
	}
}

func TestSequential_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.PanicsWithError(t, "sequential: invalid layer count 0: container is empty", func() {
			NewSequential().Init(1, 1, 1)
		})
	})

	t.Run("add_requires_init", func(t *testing.T) {
		model := newTestSequential(nil)
		model.Init(4, 4, 1)
		model.Add(NewConvLayer(1, 1, 1, DefaultConvConfig()))

		err := panicError(t, func() { model.Forward(volume.New(4, 4, 1, 0), false) })
		assert.ErrorIs(t, err, ErrNotInitialized)

		model.Init(4, 4, 1)
		assert.Equal(t, 1, model.OutputDepth())
	})

	t.Run("layer_index", func(t *testing.T) {
		model := newTestSequential(nil)
		assert.PanicsWithValue(t, "sequential: layer index 2 out of range [0, 2)", func() {
			model.Layer(2)
		})
	})

	t.Run("backward_without_forward", func(t *testing.T) {
		model := newTestSequential(nil)
		model.Init(4, 4, 1)
		assert.ErrorIs(t, panicError(t, model.Backward), ErrNoForward)
	})
}

func TestSequential_String(t *testing.T) {
	model := NewSequential(NewConvLayer(3, 3, 2, DefaultConvConfig()))
	assert.Equal(t,
		"Sequential(\n  (0): ConvLayer(filters=2, filter_size=(3, 3), stride=1, pad=0)\n)",
		model.String())
}
