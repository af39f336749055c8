// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/volnet/internal/layer"
	"github.com/born-ml/volnet/internal/parallel"
)

// Layer is the contract shared by all layer kinds.
type Layer = layer.Layer

// Base holds shape bookkeeping and cached activations for layer
// implementations outside this module.
type Base = layer.Base

// NewBase returns a Base for a layer called name.
func NewBase(name string) Base {
	return layer.NewBase(name)
}

// ParametersAndGradients pairs one learnable buffer with its gradient.
type ParametersAndGradients = layer.ParametersAndGradients

// Errors

// ShapeError reports an input whose shape disagrees with Init.
type ShapeError = layer.ShapeError

// ConfigError reports an invalid hyperparameter or input shape.
type ConfigError = layer.ConfigError

// Lifecycle errors.
var (
	ErrNotInitialized     = layer.ErrNotInitialized
	ErrNoForward          = layer.ErrNoForward
	ErrNoUpstreamGradient = layer.ErrNoUpstreamGradient
)

// Convolution

// ConvLayer is a 2D convolution over volumes.
type ConvLayer = layer.ConvLayer

// ConvConfig holds the hyperparameters of a ConvLayer.
type ConvConfig = layer.ConvConfig

// DefaultConvConfig returns stride 1, pad 0, L1 0, L2 1, bias 0, Gaussian
// filters and sequential execution.
func DefaultConvConfig() ConvConfig {
	return layer.DefaultConvConfig()
}

// NewConvLayer creates a convolution layer with filterCount filters of
// filterWidth x filterHeight.
//
// Example:
//
//	conv := nn.NewConvLayer(5, 5, 6, nn.DefaultConvConfig())
//	conv.Init(28, 28, 1)
func NewConvLayer(filterWidth, filterHeight, filterCount int, cfg ConvConfig) *ConvLayer {
	return layer.NewConvLayer(filterWidth, filterHeight, filterCount, cfg)
}

// Containers

// Sequential chains layers so that each layer's output feeds the next.
type Sequential = layer.Sequential

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return layer.NewSequential(layers...)
}

// Initialization

// Initializer fills the values of a freshly allocated parameter volume.
type Initializer = layer.Initializer

// GaussianInit draws weights from N(0, 1/fanIn).
func GaussianInit(rng *rand.Rand) Initializer {
	return layer.GaussianInit(rng)
}

// XavierInit draws weights from the Xavier/Glorot uniform distribution.
func XavierInit(rng *rand.Rand, fanOut int) Initializer {
	return layer.XavierInit(rng, fanOut)
}

// ConstantInit sets every weight to c.
func ConstantInit(c float64) Initializer {
	return layer.ConstantInit(c)
}

// Execution

// Executor maps a function over independent output channels.
type Executor = parallel.Executor

// ExecutorConfig controls a pooled executor.
type ExecutorConfig = parallel.Config

// SequentialExecutor runs channels in order on the calling goroutine.
type SequentialExecutor = parallel.Sequential

// NewPoolExecutor creates an executor that fans channels out over goroutines.
func NewPoolExecutor(cfg ExecutorConfig) Executor {
	return parallel.NewPool(cfg)
}

// DefaultExecutor returns the process-wide executor, chosen once from the
// CPU count.
func DefaultExecutor() Executor {
	return parallel.Default()
}
