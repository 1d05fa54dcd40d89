package nn

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [batch, seq] -> embeddings [batch, seq, EmbedDim]
//   - Backward: gradients scatter-add to weight rows (dense or row-sparse)
//
// Example:
//
//	opts, _ := nn.NewEmbeddingOptions[*cpu.CPUBackend](10000, 256)
//	embed, err := nn.NewEmbedding(opts.WithPaddingIdx(0), backend)
//	if err != nil {
//	    return err
//	}
//
//	indices, _ := tensor.FromSlice([]int32{1, 2, 3, 0, 0, 10, 11, 12, 13, 14},
//	    tensor.Shape{2, 5}, backend)
//	embeddings, err := embed.Forward(indices) // [2, 5, 256]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)

	opts  *EmbeddingOptions[B]
	saved *tensor.Tensor[int32, B] // indices of the last Forward
}

// NewEmbedding creates an Embedding layer from validated options.
//
// If the options carry a weight, it is adopted as-is. Otherwise a table of
// shape (num_embeddings, embedding_dim) is drawn from N(0, 1) and the
// padding row, if any, is zeroed.
//
// Returns an error wrapping ErrConstruction or ErrConfigConflict if the
// options are invalid.
func NewEmbedding[B tensor.Backend](opts *EmbeddingOptions[B], backend B) (*Embedding[B], error) {
	if opts == nil {
		return nil, fmt.Errorf("embedding: %w", inputError("options are nil"))
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	frozen := opts.Clone()
	weight := frozen.Weight()
	if weight == nil {
		weight = Randn(frozen.WeightShape(), backend)
		if pad, ok := frozen.ResolvedPaddingIdx(); ok {
			zeroRow(weight, pad)
		}
		frozen.WithWeight(weight)
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: frozen.numEmbeddings,
		EmbedDim: frozen.embeddingDim,
		opts:     frozen,
	}, nil
}

// EmbeddingFromPretrained creates an Embedding layer around a pretrained
// table of shape [numEmbeddings, embeddingDim].
//
// opts may be nil, in which case default options sized from the table are
// used; otherwise its sizes must match the table. With freeze the weight is
// not trained.
func EmbeddingFromPretrained[B tensor.Backend](weight *tensor.Tensor[float32, B], freeze bool, opts *EmbeddingOptions[B]) (*Embedding[B], error) {
	if weight == nil || weight.NDim() != 2 {
		return nil, fmt.Errorf("embedding: %w", conflictError("weight", "pretrained weight must be 2-D"))
	}
	if opts == nil {
		var err error
		opts, err = NewEmbeddingOptions[B](weight.Shape()[0], weight.Shape()[1])
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
	}

	e, err := NewEmbedding(opts.Clone().WithWeight(weight), weight.Backend())
	if err != nil {
		return nil, err
	}
	e.Weight.SetRequiresGrad(!freeze)
	return e, nil
}

// Options returns a copy of the options the layer was built with. Its
// weight is the layer's table.
func (e *Embedding[B]) Options() *EmbeddingOptions[B] {
	return e.opts.Clone()
}

// Forward performs embedding lookup.
//
// Parameters:
//   - indices: Tensor of indices of any shape [...]
//
// Returns embeddings of shape [..., EmbedDim], or an error wrapping
// ErrInvalidInput if an index is out of [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	out, err := EmbeddingLookup(indices, e.Weight.Tensor(), e.opts)
	if err != nil {
		return nil, err
	}
	e.saved = indices
	return out, nil
}

// Backward accumulates the weight gradient for the indices of the most
// recent Forward call.
//
// gradOutput must have shape [..., EmbedDim] matching that call's output.
// The padding row receives no gradient; with scale_grad_by_freq each row's
// gradient is divided by its count in the batch; with sparse the gradient is
// stored as Weight.SparseGrad(), otherwise as Weight.Grad().
func (e *Embedding[B]) Backward(gradOutput *tensor.Tensor[float32, B]) error {
	if e.saved == nil {
		return fmt.Errorf("embedding backward: no forward pass recorded")
	}
	want := e.saved.Shape().Append(e.EmbedDim)
	if gradOutput == nil || !gradOutput.Shape().Equal(want) {
		return fmt.Errorf("embedding backward: %w", inputError("gradient shape must be %v", want))
	}
	if !e.Weight.RequiresGrad() {
		return nil
	}

	accumulateWeightGrad(e.Weight, gradOutput.Raw(), e.saved.Raw(), e.opts.gradParams(), e.opts.sparse)
	return nil
}

// Parameters returns the list of trainable parameters.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
