// Package nn implements the embedding lookup layers of embedbag.
//
// This package provides:
//   - EmbeddingOptions / EmbeddingBagOptions: validated option schemas
//   - Embedding / EmbeddingBag: layers built from those options
//   - EmbeddingLookup / EmbeddingBagLookup: functional lookups
//   - Parameter: trainable tensors with dense or row-sparse gradients
//
// Design inspired by PyTorch's nn.Embedding and nn.EmbeddingBag, adapted for
// Go generics.
package nn

import (
	"github.com/born-ml/embedbag/internal/tensor"
)

// Module is the interface shared by all layers with trainable state.
//
// Lookup layers take integer indices rather than float activations, so the
// interface carries no Forward method; each layer documents its own.
type Module[B tensor.Backend] interface {
	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter[B]
}

var (
	_ Module[tensor.Backend] = (*Embedding[tensor.Backend])(nil)
	_ Module[tensor.Backend] = (*EmbeddingBag[tensor.Backend])(nil)
)
