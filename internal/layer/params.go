package layer

// ParametersAndGradients pairs one learnable buffer with its gradient.
//
// Both slices alias the owning layer's storage. An optimizer reads
// Gradients and writes updated values into Parameters in place; it must
// never reslice or reallocate them. L1DecayMul and L2DecayMul scale the
// optimizer's regularization for this buffer.
//
// Example:
//
//	for _, pg := range conv.GetParametersAndGradients() {
//	    for i := range pg.Parameters {
//	        g := pg.Gradients[i] + pg.L2DecayMul*l2*pg.Parameters[i]
//	        pg.Parameters[i] -= lr * g
//	    }
//	    pg.ZeroGradients()
//	}
type ParametersAndGradients struct {
	Parameters []float64
	Gradients  []float64
	L1DecayMul float64
	L2DecayMul float64
}

// ZeroGradients clears the gradient buffer in place.
func (p ParametersAndGradients) ZeroGradients() {
	clear(p.Gradients)
}
