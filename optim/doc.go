// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training embedding tables.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum and sparse row updates
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	bag, _ := nn.NewEmbeddingBag(opts, backend)
//	optimizer := optim.NewSGD(bag.Parameters(), optim.SGDConfig{LR: 0.1})
//
//	out, _ := bag.Forward(indices, offsets, nil)
//	_ = bag.Backward(gradOut)
//	if err := optimizer.Step(); err != nil {
//	    log.Fatal(err)
//	}
//	optimizer.ZeroGrad()
package optim
