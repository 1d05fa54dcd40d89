// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the embedding kernels.
//
// # Overview
//
// This package implements:
//   - Row gather (Embedding) for float32 and float64 tables
//   - In-place max-norm renormalization of looked-up rows
//   - Bag reduction (sum with per-sample weights, mean, max) with empty bags
//   - Dense and row-sparse weight gradients with padding exclusion and
//     inverse-frequency scaling
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/embedbag/backend/cpu"
//	    "github.com/born-ml/embedbag/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    opts, _ := nn.NewEmbeddingOptions[*cpu.Backend](1000, 64)
//	    embed, err := nn.NewEmbedding(opts, backend)
//	}
package cpu
