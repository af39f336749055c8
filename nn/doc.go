// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides volnet layers and the parameter records handed to
// optimizers.
//
// # Overview
//
// This package contains:
//   - Layer: the Init / Forward / Backward / GetParametersAndGradients contract
//   - ConvLayer: 2D convolution with implicit zero padding
//   - Sequential: container chaining layers and their shapes
//   - ParametersAndGradients: buffer + gradient + decay multipliers
//   - Initializers: Gaussian, Xavier, Constant
//   - Executors: Sequential or pooled fan-out over output channels
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/volnet/nn"
//	    "github.com/born-ml/volnet/volume"
//	)
//
//	func main() {
//	    cfg := nn.DefaultConvConfig()
//	    cfg.Pad = 1
//	    cfg.Executor = nn.DefaultExecutor()
//
//	    conv := nn.NewConvLayer(3, 3, 16, cfg)
//	    conv.Init(32, 32, 3)
//
//	    out := conv.Forward(input, true)
//	    // ... loss writes dL/dout into out ...
//	    conv.Backward()
//
//	    for _, pg := range conv.GetParametersAndGradients() {
//	        // update pg.Parameters in place from pg.Gradients
//	    }
//	}
//
// # Errors
//
// Layers panic on protocol violations. The panic values are errors:
// *ShapeError and *ConfigError describe the offending dimension, and
// ErrNotInitialized, ErrNoForward and ErrNoUpstreamGradient can be matched
// with errors.Is after recover.
package nn
