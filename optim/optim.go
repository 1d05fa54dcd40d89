// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/optim"
	"github.com/born-ml/embedbag/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config holds common optimizer configuration.
type Config = optim.Config

// ErrSparseUnsupported is returned by optimizers that cannot apply a
// row-sparse gradient.
var ErrSparseUnsupported = optim.ErrSparseUnsupported

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Dense update rule (without momentum):
//
//	param = param - lr * grad
//
// Sparse gradients are applied to the touched rows only and require
// Momentum == 0.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(bag.Parameters(), optim.SGDConfig{LR: 0.1})
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(params, config)
}

// Adam implements the Adam optimizer with bias correction.
// Adam does not accept sparse gradients.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
//
// Example:
//
//	optimizer := optim.NewAdam(embed.Parameters(), optim.AdamConfig{LR: 0.001})
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(params, config)
}
