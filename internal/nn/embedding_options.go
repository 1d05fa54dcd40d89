package nn

import (
	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingOptions configures an Embedding layer or an EmbeddingLookup call.
//
// Required fields are fixed at construction; optional fields start at their
// defaults and are set through chained With* methods:
//
//	opts, err := nn.NewEmbeddingOptions[*cpu.CPUBackend](10000, 256)
//	if err != nil {
//	    return err
//	}
//	opts.WithPaddingIdx(0).WithMaxNorm(1).WithSparse(true)
//
// Setters never fail; Validate reports violations and is called by every
// consumer before use. Once an options value has been handed to a layer or a
// lookup it must not be modified; use Clone to derive a new version.
type EmbeddingOptions[B tensor.Backend] struct {
	numEmbeddings   int
	embeddingDim    int
	paddingIdx      optional[int]
	maxNorm         optional[float32]
	normType        float32
	scaleGradByFreq bool
	sparse          bool
	weight          *tensor.Tensor[float32, B]
}

// NewEmbeddingOptions creates options for a numEmbeddings x embeddingDim table.
//
// Returns an error wrapping ErrConstruction if either size is not positive.
func NewEmbeddingOptions[B tensor.Backend](numEmbeddings, embeddingDim int) (*EmbeddingOptions[B], error) {
	if err := validateSize(numEmbeddings, embeddingDim); err != nil {
		return nil, err
	}
	return &EmbeddingOptions[B]{
		numEmbeddings: numEmbeddings,
		embeddingDim:  embeddingDim,
		normType:      defaultNormType,
	}, nil
}

// NumEmbeddings returns the number of rows in the table.
func (o *EmbeddingOptions[B]) NumEmbeddings() int { return o.numEmbeddings }

// EmbeddingDim returns the width of each row.
func (o *EmbeddingOptions[B]) EmbeddingDim() int { return o.embeddingDim }

// PaddingIdx returns the padding index as given (possibly negative) and
// whether it is set.
func (o *EmbeddingOptions[B]) PaddingIdx() (int, bool) { return o.paddingIdx.get() }

// MaxNorm returns the max-norm threshold and whether it is set.
func (o *EmbeddingOptions[B]) MaxNorm() (float32, bool) { return o.maxNorm.get() }

// NormType returns the p of the p-norm used for max-norm clipping.
func (o *EmbeddingOptions[B]) NormType() float32 { return o.normType }

// ScaleGradByFreq reports whether gradients are scaled by inverse batch frequency.
func (o *EmbeddingOptions[B]) ScaleGradByFreq() bool { return o.scaleGradByFreq }

// Sparse reports whether the weight gradient is row-sparse.
func (o *EmbeddingOptions[B]) Sparse() bool { return o.sparse }

// Weight returns the supplied weight table, or nil if the table is to be
// allocated by the layer constructor.
func (o *EmbeddingOptions[B]) Weight() *tensor.Tensor[float32, B] { return o.weight }

// WithPaddingIdx sets the row that is zero-initialized and receives no
// gradient. Negative values count from the end of the table.
func (o *EmbeddingOptions[B]) WithPaddingIdx(idx int) *EmbeddingOptions[B] {
	o.paddingIdx = some(idx)
	return o
}

// WithMaxNorm enables renormalization of looked-up rows whose norm exceeds v.
func (o *EmbeddingOptions[B]) WithMaxNorm(v float32) *EmbeddingOptions[B] {
	o.maxNorm = some(v)
	return o
}

// WithNormType sets the p of the p-norm used with max norm. Default 2.
func (o *EmbeddingOptions[B]) WithNormType(p float32) *EmbeddingOptions[B] {
	o.normType = p
	return o
}

// WithScaleGradByFreq toggles inverse-frequency gradient scaling.
func (o *EmbeddingOptions[B]) WithScaleGradByFreq(v bool) *EmbeddingOptions[B] {
	o.scaleGradByFreq = v
	return o
}

// WithSparse toggles row-sparse weight gradients.
func (o *EmbeddingOptions[B]) WithSparse(v bool) *EmbeddingOptions[B] {
	o.sparse = v
	return o
}

// WithWeight supplies the weight table. nil restores the default
// (allocate a fresh table).
func (o *EmbeddingOptions[B]) WithWeight(w *tensor.Tensor[float32, B]) *EmbeddingOptions[B] {
	o.weight = w
	return o
}

// WeightShape returns the resolved table shape (num_embeddings, embedding_dim).
func (o *EmbeddingOptions[B]) WeightShape() tensor.Shape {
	return tensor.Shape{o.numEmbeddings, o.embeddingDim}
}

// ResolvedPaddingIdx returns the padding index mapped into
// [0, num_embeddings). Only meaningful after Validate succeeds.
func (o *EmbeddingOptions[B]) ResolvedPaddingIdx() (int, bool) {
	idx, ok := o.paddingIdx.get()
	if !ok {
		return 0, false
	}
	if idx < 0 {
		idx += o.numEmbeddings
	}
	return idx, true
}

// Validate checks every option invariant and returns the first violation as
// an *OptionError.
func (o *EmbeddingOptions[B]) Validate() error {
	if err := validateSize(o.numEmbeddings, o.embeddingDim); err != nil {
		return err
	}
	if idx, ok := o.paddingIdx.get(); ok && (idx < -o.numEmbeddings || idx >= o.numEmbeddings) {
		return conflictError("padding_idx", "%d out of range [%d, %d)", idx, -o.numEmbeddings, o.numEmbeddings)
	}
	if err := validateNorm(o.maxNorm, o.normType); err != nil {
		return err
	}
	return validateWeight(o.weight, o.numEmbeddings, o.embeddingDim)
}

// Clone returns an independent copy. The weight tensor is shared.
func (o *EmbeddingOptions[B]) Clone() *EmbeddingOptions[B] {
	c := *o
	return &c
}

func (o *EmbeddingOptions[B]) gradParams() tensor.GradParams {
	pad, hasPad := o.ResolvedPaddingIdx()
	return tensor.GradParams{
		NumWeights:      o.numEmbeddings,
		PaddingIdx:      pad,
		HasPadding:      hasPad,
		ScaleGradByFreq: o.scaleGradByFreq,
	}
}
