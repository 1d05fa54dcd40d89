package nn

import (
	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingBagMode selects how the rows of a bag are reduced.
type EmbeddingBagMode = tensor.BagMode

// Bag reduction modes.
const (
	// ModeSum computes the sum of the bag rows, each scaled by its
	// per-sample weight when per-sample weights are given.
	ModeSum = tensor.BagSum

	// ModeMean computes the unweighted mean of the bag rows.
	ModeMean = tensor.BagMean

	// ModeMax computes the element-wise maximum of the bag rows.
	ModeMax = tensor.BagMax
)

// EmbeddingBagOptions configures an EmbeddingBag layer or an
// EmbeddingBagLookup call.
//
// It carries the per-row options of EmbeddingOptions except the padding
// index, plus the reduction mode and, for the functional form, the bag
// offsets and per-sample weights.
//
// The mode restricts the other options:
//   - ModeMax: scale_grad_by_freq and sparse must be false
//   - per_sample_weights are only allowed with ModeSum
//
// Example:
//
//	opts, err := nn.NewEmbeddingBagOptions[*cpu.CPUBackend](10, 3)
//	if err != nil {
//	    return err
//	}
//	opts.WithMode(nn.ModeSum).WithOffsets(offsets).WithPerSampleWeights(weights)
type EmbeddingBagOptions[B tensor.Backend] struct {
	numEmbeddings    int
	embeddingDim     int
	maxNorm          optional[float32]
	normType         float32
	scaleGradByFreq  bool
	mode             EmbeddingBagMode
	sparse           bool
	weight           *tensor.Tensor[float32, B]
	offsets          *tensor.Tensor[int32, B]
	perSampleWeights *tensor.Tensor[float32, B]
}

// NewEmbeddingBagOptions creates options for a numEmbeddings x embeddingDim
// table with mean reduction.
//
// Returns an error wrapping ErrConstruction if either size is not positive.
func NewEmbeddingBagOptions[B tensor.Backend](numEmbeddings, embeddingDim int) (*EmbeddingBagOptions[B], error) {
	if err := validateSize(numEmbeddings, embeddingDim); err != nil {
		return nil, err
	}
	return &EmbeddingBagOptions[B]{
		numEmbeddings: numEmbeddings,
		embeddingDim:  embeddingDim,
		normType:      defaultNormType,
		mode:          ModeMean,
	}, nil
}

// NumEmbeddings returns the number of rows in the table.
func (o *EmbeddingBagOptions[B]) NumEmbeddings() int { return o.numEmbeddings }

// EmbeddingDim returns the width of each row.
func (o *EmbeddingBagOptions[B]) EmbeddingDim() int { return o.embeddingDim }

// MaxNorm returns the max-norm threshold and whether it is set.
func (o *EmbeddingBagOptions[B]) MaxNorm() (float32, bool) { return o.maxNorm.get() }

// NormType returns the p of the p-norm used for max-norm clipping.
func (o *EmbeddingBagOptions[B]) NormType() float32 { return o.normType }

// ScaleGradByFreq reports whether gradients are scaled by inverse batch frequency.
func (o *EmbeddingBagOptions[B]) ScaleGradByFreq() bool { return o.scaleGradByFreq }

// Mode returns the bag reduction mode.
func (o *EmbeddingBagOptions[B]) Mode() EmbeddingBagMode { return o.mode }

// Sparse reports whether the weight gradient is row-sparse.
func (o *EmbeddingBagOptions[B]) Sparse() bool { return o.sparse }

// Weight returns the supplied weight table, or nil.
func (o *EmbeddingBagOptions[B]) Weight() *tensor.Tensor[float32, B] { return o.weight }

// Offsets returns the bag start positions, or nil.
func (o *EmbeddingBagOptions[B]) Offsets() *tensor.Tensor[int32, B] { return o.offsets }

// PerSampleWeights returns the per-index weights, or nil.
func (o *EmbeddingBagOptions[B]) PerSampleWeights() *tensor.Tensor[float32, B] {
	return o.perSampleWeights
}

// WithMaxNorm enables renormalization of looked-up rows whose norm exceeds v.
func (o *EmbeddingBagOptions[B]) WithMaxNorm(v float32) *EmbeddingBagOptions[B] {
	o.maxNorm = some(v)
	return o
}

// WithNormType sets the p of the p-norm used with max norm. Default 2.
func (o *EmbeddingBagOptions[B]) WithNormType(p float32) *EmbeddingBagOptions[B] {
	o.normType = p
	return o
}

// WithScaleGradByFreq toggles inverse-frequency gradient scaling.
// Not supported with ModeMax.
func (o *EmbeddingBagOptions[B]) WithScaleGradByFreq(v bool) *EmbeddingBagOptions[B] {
	o.scaleGradByFreq = v
	return o
}

// WithMode sets the bag reduction mode. Default ModeMean.
func (o *EmbeddingBagOptions[B]) WithMode(m EmbeddingBagMode) *EmbeddingBagOptions[B] {
	o.mode = m
	return o
}

// WithSparse toggles row-sparse weight gradients. Not supported with ModeMax.
func (o *EmbeddingBagOptions[B]) WithSparse(v bool) *EmbeddingBagOptions[B] {
	o.sparse = v
	return o
}

// WithWeight supplies the weight table. nil restores the default.
func (o *EmbeddingBagOptions[B]) WithWeight(w *tensor.Tensor[float32, B]) *EmbeddingBagOptions[B] {
	o.weight = w
	return o
}

// WithOffsets sets the 1-D bag start positions used by EmbeddingBagLookup
// for 1-D input. Ignored for 2-D input, where each row is a bag.
func (o *EmbeddingBagOptions[B]) WithOffsets(offsets *tensor.Tensor[int32, B]) *EmbeddingBagOptions[B] {
	o.offsets = offsets
	return o
}

// WithPerSampleWeights sets weights scaling each looked-up row before the
// reduction. Must match the input shape. Only supported with ModeSum.
func (o *EmbeddingBagOptions[B]) WithPerSampleWeights(w *tensor.Tensor[float32, B]) *EmbeddingBagOptions[B] {
	o.perSampleWeights = w
	return o
}

// WeightShape returns the resolved table shape (num_embeddings, embedding_dim).
func (o *EmbeddingBagOptions[B]) WeightShape() tensor.Shape {
	return tensor.Shape{o.numEmbeddings, o.embeddingDim}
}

// Validate checks every option invariant and returns the first violation as
// an *OptionError.
func (o *EmbeddingBagOptions[B]) Validate() error {
	if err := validateSize(o.numEmbeddings, o.embeddingDim); err != nil {
		return err
	}
	if err := validateNorm(o.maxNorm, o.normType); err != nil {
		return err
	}
	if err := validateMode(o.mode, o.scaleGradByFreq, o.sparse, o.perSampleWeights != nil); err != nil {
		return err
	}
	if o.offsets != nil && o.offsets.NDim() != 1 {
		return conflictError("offsets", "must be 1-D, got shape %v", o.offsets.Shape())
	}
	return validateWeight(o.weight, o.numEmbeddings, o.embeddingDim)
}

// Clone returns an independent copy. Tensors are shared.
func (o *EmbeddingBagOptions[B]) Clone() *EmbeddingBagOptions[B] {
	c := *o
	return &c
}

func (o *EmbeddingBagOptions[B]) gradParams() tensor.GradParams {
	return tensor.GradParams{
		NumWeights:      o.numEmbeddings,
		ScaleGradByFreq: o.scaleGradByFreq,
	}
}

// validateMode checks the options whose legality depends on the mode.
func validateMode(mode EmbeddingBagMode, scaleGradByFreq, sparse, hasPerSampleWeights bool) error {
	switch mode {
	case ModeSum:
		return nil
	case ModeMean:
		if hasPerSampleWeights {
			return conflictError("per_sample_weights", "only supported with mode sum, got mode %s", mode)
		}
		return nil
	case ModeMax:
		if scaleGradByFreq {
			return conflictError("scale_grad_by_freq", "not supported with mode max")
		}
		if sparse {
			return conflictError("sparse", "not supported with mode max")
		}
		if hasPerSampleWeights {
			return conflictError("per_sample_weights", "only supported with mode sum, got mode %s", mode)
		}
		return nil
	default:
		return conflictError("mode", "unknown mode %s", mode)
	}
}
