package layer

import (
	"fmt"

	"github.com/born-ml/volnet/internal/volume"
)

// Sequential chains layers so that each layer's output feeds the next.
//
// Init propagates shapes: every layer is initialized with the output shape
// of its predecessor. Backward runs the layers in reverse; each layer reads
// the gradient its successor wrote into the shared activation volume.
//
// Example:
//
//	model := layer.NewSequential(
//	    layer.NewConvLayer(3, 3, 8, cfg),
//	    layer.NewConvLayer(1, 1, 2, cfg),
//	)
//	model.Init(32, 32, 3)
//	out := model.Forward(input, true)
//	// ... loss writes dL/dout into out ...
//	model.Backward()
type Sequential struct {
	Base
	layers []Layer
}

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{
		Base:   NewBase("sequential"),
		layers: layers,
	}
}

// Add appends a layer. The container must be initialized again afterwards.
func (s *Sequential) Add(l Layer) {
	s.layers = append(s.layers, l)
	s.Uninit()
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic(fmt.Sprintf("sequential: layer index %d out of range [0, %d)", index, len(s.layers)))
	}
	return s.layers[index]
}

// Init implements Layer.
func (s *Sequential) Init(inputWidth, inputHeight, inputDepth int) {
	if len(s.layers) == 0 {
		panic(&ConfigError{Layer: s.Name(), Field: "layer count", Value: 0, Reason: "container is empty"})
	}
	s.InitBase(inputWidth, inputHeight, inputDepth)

	w, h, d := inputWidth, inputHeight, inputDepth
	for _, l := range s.layers {
		l.Init(w, h, d)
		w, h, d = l.OutputWidth(), l.OutputHeight(), l.OutputDepth()
	}
	s.SetOutputShape(w, h, d)
}

// Forward implements Layer.
func (s *Sequential) Forward(input *volume.Volume, isTraining bool) *volume.Volume {
	s.CheckInitialized("forward")
	s.CheckInput(input)

	output := input
	for _, l := range s.layers {
		output = l.Forward(output, isTraining)
	}

	s.Retain(input, output, isTraining)
	return output
}

// Backward implements Layer.
func (s *Sequential) Backward() {
	s.CheckBackward()
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Backward()
	}
}

// GetParametersAndGradients implements Layer.
//
// Entries are concatenated in layer order.
func (s *Sequential) GetParametersAndGradients() []ParametersAndGradients {
	s.CheckInitialized("parameters")

	var response []ParametersAndGradients
	for _, l := range s.layers {
		response = append(response, l.GetParametersAndGradients()...)
	}
	return response
}

// ZeroGradients clears the parameter gradients of every layer.
func (s *Sequential) ZeroGradients() {
	for _, pg := range s.GetParametersAndGradients() {
		pg.ZeroGradients()
	}
}

// String returns a string representation of the container.
func (s *Sequential) String() string {
	str := "Sequential(\n"
	for i, l := range s.layers {
		str += fmt.Sprintf("  (%d): %v\n", i, l)
	}
	return str + ")"
}
