// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/volnet/nn"
	"github.com/born-ml/volnet/volume"
)

// TestLayerInterface verifies that concrete types implement Layer.
func TestLayerInterface(t *testing.T) {
	cfg := nn.DefaultConvConfig()
	cfg.Pad = 1

	tests := []struct {
		name  string
		layer nn.Layer
	}{
		{
			name:  "ConvLayer",
			layer: nn.NewConvLayer(3, 3, 2, cfg),
		},
		{
			name: "Sequential",
			layer: nn.NewSequential(
				nn.NewConvLayer(3, 3, 2, cfg),
				nn.NewConvLayer(1, 1, 1, cfg),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.layer.Init(4, 4, 1)
			out := tt.layer.Forward(volume.New(4, 4, 1, 1), true)
			assert.Equal(t, tt.layer.OutputWidth(), out.Width())
			assert.Equal(t, tt.layer.OutputHeight(), out.Height())
			assert.Equal(t, tt.layer.OutputDepth(), out.Depth())

			out.ZeroGradients()
			tt.layer.Backward()
			assert.NotEmpty(t, tt.layer.GetParametersAndGradients())
		})
	}
}

// TestEndToEnd runs a 5x5 all-ones input through a 3x3 all-ones filter.
func TestEndToEnd(t *testing.T) {
	executors := map[string]nn.Executor{
		"sequential": nn.SequentialExecutor{},
		"pool":       nn.NewPoolExecutor(nn.ExecutorConfig{Enabled: true, NumWorkers: 2}),
		"default":    nn.DefaultExecutor(),
	}

	for name, exec := range executors {
		t.Run(name, func(t *testing.T) {
			cfg := nn.DefaultConvConfig()
			cfg.Init = nn.ConstantInit(1)
			cfg.Executor = exec
			conv := nn.NewConvLayer(3, 3, 1, cfg)
			conv.Init(5, 5, 1)

			out := conv.Forward(volume.New(5, 5, 1, 1), true)
			require.Equal(t, 9, out.Len())
			for _, v := range out.Weights() {
				assert.Equal(t, 9.0, v)
			}

			for y := 0; y < out.Height(); y++ {
				for x := 0; x < out.Width(); x++ {
					out.SetGradient(x, y, 0, 1)
				}
			}
			conv.Backward()

			pgs := conv.GetParametersAndGradients()
			require.Len(t, pgs, 2)
			for _, g := range pgs[0].Gradients {
				assert.Equal(t, 9.0, g)
			}
			assert.Equal(t, []float64{9}, pgs[1].Gradients)
		})
	}
}

func TestErrorsAreMatchable(t *testing.T) {
	conv := nn.NewConvLayer(3, 3, 1, nn.DefaultConvConfig())
	conv.Init(5, 5, 2)

	var err error
	func() {
		defer func() { err, _ = recover().(error) }()
		conv.Forward(volume.New(5, 5, 3, 0), false)
	}()

	var shapeErr *nn.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "depth", shapeErr.Dim)

	func() {
		defer func() { err, _ = recover().(error) }()
		conv.Backward()
	}()
	assert.ErrorIs(t, err, nn.ErrNoForward)
}
