// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Errors

// Sentinel error categories.
var (
	ErrConstruction   = nn.ErrConstruction
	ErrConfigConflict = nn.ErrConfigConflict
	ErrInvalidInput   = nn.ErrInvalidInput
)

// OptionError describes a rejected option value or input.
type OptionError = nn.OptionError

// Options

// EmbeddingOptions configures an Embedding layer.
type EmbeddingOptions[B tensor.Backend] = nn.EmbeddingOptions[B]

// NewEmbeddingOptions creates options for a table of numEmbeddings rows of
// embeddingDim values. Both must be positive.
//
// Example:
//
//	opts, err := nn.NewEmbeddingOptions[*cpu.Backend](10, 2)
//	opts.WithPaddingIdx(0).WithMaxNorm(1)
func NewEmbeddingOptions[B tensor.Backend](numEmbeddings, embeddingDim int) (*EmbeddingOptions[B], error) {
	return nn.NewEmbeddingOptions[B](numEmbeddings, embeddingDim)
}

// EmbeddingBagMode selects the bag reduction.
type EmbeddingBagMode = nn.EmbeddingBagMode

// Bag reduction modes.
const (
	ModeSum  = nn.ModeSum
	ModeMean = nn.ModeMean
	ModeMax  = nn.ModeMax
)

// EmbeddingBagOptions configures an EmbeddingBag layer. Mode defaults to ModeMean.
type EmbeddingBagOptions[B tensor.Backend] = nn.EmbeddingBagOptions[B]

// NewEmbeddingBagOptions creates bag options with the default mean reduction.
func NewEmbeddingBagOptions[B tensor.Backend](numEmbeddings, embeddingDim int) (*EmbeddingBagOptions[B], error) {
	return nn.NewEmbeddingBagOptions[B](numEmbeddings, embeddingDim)
}

// Layers

// Embedding is a lookup table mapping indices to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an Embedding layer from validated options.
func NewEmbedding[B tensor.Backend](opts *EmbeddingOptions[B], backend B) (*Embedding[B], error) {
	return nn.NewEmbedding(opts, backend)
}

// EmbeddingFromPretrained creates an Embedding layer around an existing table.
// When freeze is true the weight does not receive gradients.
func EmbeddingFromPretrained[B tensor.Backend](weight *tensor.Tensor[float32, B], freeze bool, opts *EmbeddingOptions[B]) (*Embedding[B], error) {
	return nn.EmbeddingFromPretrained(weight, freeze, opts)
}

// EmbeddingBag computes sums, means or maxima over bags of embeddings.
type EmbeddingBag[B tensor.Backend] = nn.EmbeddingBag[B]

// NewEmbeddingBag creates an EmbeddingBag layer from validated options.
func NewEmbeddingBag[B tensor.Backend](opts *EmbeddingBagOptions[B], backend B) (*EmbeddingBag[B], error) {
	return nn.NewEmbeddingBag(opts, backend)
}

// EmbeddingBagFromPretrained creates an EmbeddingBag layer around an existing table.
func EmbeddingBagFromPretrained[B tensor.Backend](weight *tensor.Tensor[float32, B], freeze bool, opts *EmbeddingBagOptions[B]) (*EmbeddingBag[B], error) {
	return nn.EmbeddingBagFromPretrained(weight, freeze, opts)
}

// Functional

// EmbeddingLookup gathers rows of weight for every index in input.
func EmbeddingLookup[B tensor.Backend](
	input *tensor.Tensor[int32, B],
	weight *tensor.Tensor[float32, B],
	opts *EmbeddingOptions[B],
) (*tensor.Tensor[float32, B], error) {
	return nn.EmbeddingLookup(input, weight, opts)
}

// EmbeddingBagLookup reduces bags of rows of weight. Offsets and per-sample
// weights are taken from opts.
func EmbeddingBagLookup[B tensor.Backend](
	input *tensor.Tensor[int32, B],
	weight *tensor.Tensor[float32, B],
	opts *EmbeddingBagOptions[B],
) (*tensor.Tensor[float32, B], error) {
	return nn.EmbeddingBagLookup(input, weight, opts)
}

// Initialization

// Randn creates a float32 tensor drawn from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Zeros creates a float32 tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}
