// Package layer implements volume-based neural network layers.
//
// Every layer follows the same lifecycle:
//
//	conv := layer.NewConvLayer(3, 3, 8, layer.DefaultConvConfig())
//	conv.Init(28, 28, 1)              // shape inference + parameter allocation
//	out := conv.Forward(input, true)  // keeps input for Backward
//	// ... downstream writes dL/dout into out's gradient buffer ...
//	conv.Backward()                   // fills input and parameter gradients
//	params := conv.GetParametersAndGradients()
//
// Layers panic on protocol violations (use before Init, shape mismatch,
// Backward without a training Forward). Silent continuation would produce
// numerically wrong results rather than a crash.
package layer

import (
	"fmt"

	"github.com/born-ml/volnet/internal/volume"
)

// Layer is the contract shared by all layer kinds.
type Layer interface {
	// Init infers the output shape from the input shape and allocates
	// parameters. Calling it again is a reset: trained parameters are lost.
	Init(inputWidth, inputHeight, inputDepth int)

	// Forward computes the output for input. It never mutates input values.
	// When isTraining is true the layer keeps what Backward needs.
	Forward(input *volume.Volume, isTraining bool) *volume.Volume

	// Backward reads the gradient on the last training output, zeroes the
	// gradient on the last training input and refills it, and accumulates
	// parameter gradients.
	Backward()

	// GetParametersAndGradients returns every learnable buffer in a stable
	// order.
	GetParametersAndGradients() []ParametersAndGradients

	OutputWidth() int
	OutputHeight() int
	OutputDepth() int
}

// Base holds the shape bookkeeping and cached activations common to all
// layers. Concrete layers embed it.
type Base struct {
	name string

	inputWidth  int
	inputHeight int
	inputDepth  int

	outputWidth  int
	outputHeight int
	outputDepth  int

	initialized bool

	inputActivation  *volume.Volume
	outputActivation *volume.Volume
}

// NewBase returns a Base for a layer called name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the layer name used in error messages.
func (b *Base) Name() string { return b.name }

// InitBase records the input shape, drops cached activations and marks the
// layer initialized. Non-positive dimensions panic with a *ConfigError.
func (b *Base) InitBase(inputWidth, inputHeight, inputDepth int) {
	if err := b.ValidateInput(inputWidth, inputHeight, inputDepth); err != nil {
		panic(err)
	}
	b.inputWidth = inputWidth
	b.inputHeight = inputHeight
	b.inputDepth = inputDepth
	b.inputActivation = nil
	b.outputActivation = nil
	b.initialized = true
}

// ValidateInput checks that an input shape is usable.
func (b *Base) ValidateInput(inputWidth, inputHeight, inputDepth int) error {
	for _, dim := range []struct {
		field string
		value int
	}{
		{"input width", inputWidth},
		{"input height", inputHeight},
		{"input depth", inputDepth},
	} {
		if dim.value <= 0 {
			return &ConfigError{Layer: b.name, Field: dim.field, Value: dim.value, Reason: "must be positive"}
		}
	}
	return nil
}

// SetOutputShape records the shape Forward will produce.
func (b *Base) SetOutputShape(width, height, depth int) {
	b.outputWidth = width
	b.outputHeight = height
	b.outputDepth = depth
}

// Uninit marks the layer as needing a new Init.
func (b *Base) Uninit() {
	b.initialized = false
	b.inputActivation = nil
	b.outputActivation = nil
}

// Initialized reports whether Init has run since construction or Uninit.
func (b *Base) Initialized() bool { return b.initialized }

// InputWidth returns the input width declared at Init.
func (b *Base) InputWidth() int { return b.inputWidth }

// InputHeight returns the input height declared at Init.
func (b *Base) InputHeight() int { return b.inputHeight }

// InputDepth returns the input depth declared at Init.
func (b *Base) InputDepth() int { return b.inputDepth }

// OutputWidth returns the output width inferred at Init.
func (b *Base) OutputWidth() int { return b.outputWidth }

// OutputHeight returns the output height inferred at Init.
func (b *Base) OutputHeight() int { return b.outputHeight }

// OutputDepth returns the output depth inferred at Init.
func (b *Base) OutputDepth() int { return b.outputDepth }

// InputActivation returns the input of the last training forward, or nil.
func (b *Base) InputActivation() *volume.Volume { return b.inputActivation }

// OutputActivation returns the output of the last training forward, or nil.
func (b *Base) OutputActivation() *volume.Volume { return b.outputActivation }

// CheckInitialized panics with ErrNotInitialized if Init has not run.
func (b *Base) CheckInitialized(op string) {
	if !b.initialized {
		panic(fmt.Errorf("%s: %s: %w", b.name, op, ErrNotInitialized))
	}
}

// CheckInput panics with a *ShapeError if v does not have the input shape
// declared at Init.
func (b *Base) CheckInput(v *volume.Volume) {
	if v == nil {
		panic(fmt.Sprintf("%s: nil input volume", b.name))
	}
	switch {
	case v.Depth() != b.inputDepth:
		panic(&ShapeError{Layer: b.name, Dim: "depth", Got: v.Depth(), Want: b.inputDepth})
	case v.Width() != b.inputWidth:
		panic(&ShapeError{Layer: b.name, Dim: "width", Got: v.Width(), Want: b.inputWidth})
	case v.Height() != b.inputHeight:
		panic(&ShapeError{Layer: b.name, Dim: "height", Got: v.Height(), Want: b.inputHeight})
	}
}

// Retain caches the activations of a forward pass. Inference passes
// (isTraining false) clear the cache so a later Backward fails fast.
func (b *Base) Retain(input, output *volume.Volume, isTraining bool) {
	if !isTraining {
		b.inputActivation = nil
		b.outputActivation = nil
		return
	}
	b.inputActivation = input
	b.outputActivation = output
}

// CheckBackward returns the cached activations for Backward. It panics with
// ErrNoForward if there was no training forward since Init, and with
// ErrNoUpstreamGradient if nothing wrote a gradient into the output.
func (b *Base) CheckBackward() (input, output *volume.Volume) {
	b.CheckInitialized("backward")
	if b.inputActivation == nil || b.outputActivation == nil {
		panic(fmt.Errorf("%s: %w", b.name, ErrNoForward))
	}
	if !b.outputActivation.HasGradients() {
		panic(fmt.Errorf("%s: %w", b.name, ErrNoUpstreamGradient))
	}
	return b.inputActivation, b.outputActivation
}
