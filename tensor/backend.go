// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/embedbag/internal/tensor"

// Backend defines the embedding kernels a compute backend implements.
//
// Implementations:
//   - backend/cpu: Pure Go
type Backend = tensor.Backend

// BagMode selects how EmbeddingBag reduces a bag: BagSum, BagMean or BagMax.
type BagMode = tensor.BagMode

// Bag reduction modes.
const (
	BagSum  BagMode = tensor.BagSum
	BagMean BagMode = tensor.BagMean
	BagMax  BagMode = tensor.BagMax
)

// ParseBagMode parses "sum", "mean" or "max".
func ParseBagMode(s string) (BagMode, error) {
	return tensor.ParseBagMode(s)
}

// GradParams carries the option values that shape an embedding gradient.
type GradParams = tensor.GradParams

// BagResult is the output of an EmbeddingBag kernel with its bookkeeping.
type BagResult = tensor.BagResult

// SparseRows is a row-sparse gradient of a 2-D table.
type SparseRows = tensor.SparseRows
