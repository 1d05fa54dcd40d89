// Package optim implements optimizers for embedding tables.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum; applies row-sparse
//     gradients lazily, touching only the rows that were looked up
//   - Adam: Adaptive Moment Estimation (dense gradients only)
//
// Gradients are read from the parameters themselves, as filled in by the
// layers' Backward methods.
//
// Example usage:
//
//	optimizer := optim.NewSGD(bag.Parameters(), optim.SGDConfig{LR: 0.1})
//
//	for _, batch := range batches {
//	    out, err := bag.Forward(batch.Input, batch.Offsets, nil)
//	    ...
//	    if err := bag.Backward(gradOut); err != nil { ... }
//	    if err := optimizer.Step(); err != nil { ... }
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"errors"

	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/tensor"
)

// ErrSparseUnsupported is returned when an optimizer configuration cannot
// apply a row-sparse gradient.
var ErrSparseUnsupported = errors.New("sparse gradients not supported")

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated gradients to all trainable parameters.
	//
	// Frozen parameters and parameters without a gradient are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// hasGrad reports whether param should be updated this step.
func hasGrad[B tensor.Backend](param *nn.Parameter[B]) bool {
	if param == nil || !param.RequiresGrad() {
		return false
	}
	return param.Grad() != nil || param.SparseGrad() != nil
}
