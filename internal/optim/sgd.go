package optim

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Row-sparse gradients (from layers built with sparse=true) update only
// the stored rows. Momentum would touch every row, so it is rejected for
// sparse gradients with ErrSparseUnsupported.
//
// Example:
//
//	optimizer := optim.NewSGD(embed.Parameters(), optim.SGDConfig{
//	    LR: 0.01,
//	})
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]][]float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]][]float32),
	}
}

// Step performs a single optimization step.
//
// With momentum, nothing is updated if any parameter holds a sparse gradient.
func (s *SGD[B]) Step() error {
	if s.momentum != 0 {
		for _, param := range s.params {
			if hasGrad(param) && param.SparseGrad() != nil {
				return fmt.Errorf("sgd: parameter %s: momentum: %w", param.Name(), ErrSparseUnsupported)
			}
		}
	}

	for _, param := range s.params {
		if !hasGrad(param) {
			continue
		}

		if sparse := param.SparseGrad(); sparse != nil {
			applySparse(param.Tensor(), sparse, s.lr)
		}
		if grad := param.Grad(); grad != nil {
			if s.momentum == 0 {
				s.updateParameter(param, grad.Data())
			} else {
				s.updateParameterWithMomentum(param, grad.Data())
			}
		}
	}
	return nil
}

// updateParameter performs simple SGD update without momentum.
func (s *SGD[B]) updateParameter(param *nn.Parameter[B], grad []float32) {
	data := param.Tensor().Data()
	for i, g := range grad {
		data[i] -= s.lr * g
	}
}

// updateParameterWithMomentum performs SGD update with momentum.
func (s *SGD[B]) updateParameterWithMomentum(param *nn.Parameter[B], grad []float32) {
	velocity, exists := s.velocities[param]
	if !exists {
		velocity = make([]float32, len(grad))
		s.velocities[param] = velocity
	}

	data := param.Tensor().Data()
	for i, g := range grad {
		velocity[i] = s.momentum*velocity[i] + g
		data[i] -= s.lr * velocity[i]
	}
}

// applySparse subtracts lr * grad from the stored rows only.
func applySparse[B tensor.Backend](weight *tensor.Tensor[float32, B], grad *tensor.SparseRows, lr float32) {
	if grad.Values == nil {
		return
	}
	dim := grad.DenseShape[1]
	values := grad.Values.AsFloat32()
	for k, row := range grad.Rows {
		dst := weight.Row(row)
		for j, g := range values[k*dim : (k+1)*dim] {
			dst[j] -= lr * g
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
