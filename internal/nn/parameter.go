package nn

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A parameter accumulates either a dense gradient (same shape as the
// tensor) or a row-sparse gradient, depending on the layer's sparse option.
// Frozen parameters (RequiresGrad false) accumulate nothing.
//
// Example:
//
//	weight := nn.NewParameter("embedding.weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad()
type Parameter[B tensor.Backend] struct {
	name         string                     // Parameter name (e.g., "embedding.weight")
	tensor       *tensor.Tensor[float32, B] // The parameter tensor
	grad         *tensor.Tensor[float32, B] // Dense gradient
	sparseGrad   *tensor.SparseRows         // Row-sparse gradient
	requiresGrad bool
}

// NewParameter creates a new trainable parameter.
//
// Gradient will be allocated during the first backward pass.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:         name,
		tensor:       t,
		requiresGrad: true,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// RequiresGrad reports whether the parameter is trainable.
func (p *Parameter[B]) RequiresGrad() bool {
	return p.requiresGrad
}

// SetRequiresGrad freezes (false) or unfreezes (true) the parameter.
func (p *Parameter[B]) SetRequiresGrad(v bool) {
	p.requiresGrad = v
}

// Grad returns the dense gradient tensor.
//
// Returns nil if no dense gradient has been computed yet.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SparseGrad returns the row-sparse gradient, or nil.
func (p *Parameter[B]) SparseGrad() *tensor.SparseRows {
	return p.sparseGrad
}

// SetGrad sets the dense gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// AccumulateGrad adds grad to the dense gradient.
func (p *Parameter[B]) AccumulateGrad(grad *tensor.Tensor[float32, B]) {
	if !grad.Shape().Equal(p.tensor.Shape()) {
		panic(fmt.Sprintf("parameter %s: gradient shape %v does not match %v", p.name, grad.Shape(), p.tensor.Shape()))
	}
	if p.grad == nil {
		p.grad = grad
		return
	}
	acc := p.grad.Data()
	for i, g := range grad.Data() {
		acc[i] += g
	}
}

// AccumulateSparseGrad adds a row-sparse gradient.
func (p *Parameter[B]) AccumulateSparseGrad(grad *tensor.SparseRows) {
	if !grad.DenseShape.Equal(p.tensor.Shape()) {
		panic(fmt.Sprintf("parameter %s: gradient shape %v does not match %v", p.name, grad.DenseShape, p.tensor.Shape()))
	}
	if p.sparseGrad == nil {
		p.sparseGrad = grad
		return
	}
	p.sparseGrad = p.sparseGrad.Add(grad)
}

// ZeroGrad clears both gradients.
//
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
	p.sparseGrad = nil
}
