package nn

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingLookup looks up rows of weight for every index in input.
//
// The options are validated first; weight must have the options' table
// shape. When max norm is set, every row referenced by input is
// renormalized in place before the lookup.
//
// Parameters:
//   - input: indices of any shape [...], each in [0, num_embeddings)
//   - weight: table [num_embeddings, embedding_dim]
//   - opts: embedding options
//
// Returns a tensor of shape [..., embedding_dim].
func EmbeddingLookup[B tensor.Backend](
	input *tensor.Tensor[int32, B],
	weight *tensor.Tensor[float32, B],
	opts *EmbeddingOptions[B],
) (*tensor.Tensor[float32, B], error) {
	if opts == nil {
		return nil, fmt.Errorf("embedding lookup: %w", inputError("options are nil"))
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("embedding lookup: %w", err)
	}
	if input == nil || weight == nil {
		return nil, fmt.Errorf("embedding lookup: %w", inputError("input and weight are required"))
	}
	if err := validateWeight(weight, opts.numEmbeddings, opts.embeddingDim); err != nil {
		return nil, fmt.Errorf("embedding lookup: %w", err)
	}
	if err := checkIndices(input.Raw(), opts.numEmbeddings); err != nil {
		return nil, fmt.Errorf("embedding lookup: %w", err)
	}

	backend := weight.Backend()
	if maxNorm, ok := opts.MaxNorm(); ok {
		backend.EmbeddingRenorm(weight.Raw(), input.Raw(), float64(maxNorm), float64(opts.normType))
	}
	return tensor.New[float32, B](backend.Embedding(weight.Raw(), input.Raw()), backend), nil
}

// EmbeddingBagLookup looks up rows of weight and reduces them per bag,
// taking offsets and per-sample weights from the options.
//
// Input layouts:
//   - 2-D [B, L]: each row is a bag of L indices; offsets are ignored
//   - 1-D [N]: offsets [B] is required, offsets[0] must be 0 and offsets
//     must be non-decreasing; bag i spans [offsets[i], offsets[i+1]) and
//     the last bag runs to N
//
// Per-sample weights, when set, must have the shape of input.
// Empty bags produce all-zero rows.
//
// Returns a tensor of shape [B, embedding_dim].
func EmbeddingBagLookup[B tensor.Backend](
	input *tensor.Tensor[int32, B],
	weight *tensor.Tensor[float32, B],
	opts *EmbeddingBagOptions[B],
) (*tensor.Tensor[float32, B], error) {
	if opts == nil {
		return nil, fmt.Errorf("embedding bag lookup: %w", inputError("options are nil"))
	}
	call, err := embeddingBag(input, opts.offsets, opts.perSampleWeights, weight, opts)
	if err != nil {
		return nil, fmt.Errorf("embedding bag lookup: %w", err)
	}
	return tensor.New[float32, B](call.result.Output, weight.Backend()), nil
}

// bagCall records one bag lookup for the backward pass.
type bagCall struct {
	indices          *tensor.RawTensor
	perSampleWeights *tensor.RawTensor
	result           *tensor.BagResult
}

func embeddingBag[B tensor.Backend](
	input *tensor.Tensor[int32, B],
	offsets *tensor.Tensor[int32, B],
	perSampleWeights *tensor.Tensor[float32, B],
	weight *tensor.Tensor[float32, B],
	opts *EmbeddingBagOptions[B],
) (*bagCall, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := validateMode(opts.mode, opts.scaleGradByFreq, opts.sparse, perSampleWeights != nil); err != nil {
		return nil, err
	}
	if input == nil || weight == nil {
		return nil, inputError("input and weight are required")
	}
	if err := validateWeight(weight, opts.numEmbeddings, opts.embeddingDim); err != nil {
		return nil, err
	}

	backend := weight.Backend()
	var offsetsRaw *tensor.RawTensor

	shape := input.Shape()
	switch len(shape) {
	case 2:
		offsetsRaw = rowOffsets(shape[0], shape[1], backend.Device())
	case 1:
		if offsets == nil {
			return nil, inputError("1-D input requires offsets")
		}
		if offsets.NDim() != 1 {
			return nil, inputError("offsets must be 1-D, got shape %v", offsets.Shape())
		}
		if err := checkOffsets(offsets.Data(), shape[0]); err != nil {
			return nil, err
		}
		offsetsRaw = offsets.Raw()
	default:
		return nil, inputError("input must be 1-D or 2-D, got shape %v", shape)
	}

	var pswRaw *tensor.RawTensor
	if perSampleWeights != nil {
		if !perSampleWeights.Shape().Equal(shape) {
			return nil, inputError("per_sample_weights shape %v does not match input shape %v",
				perSampleWeights.Shape(), shape)
		}
		pswRaw = perSampleWeights.Raw()
	}

	if err := checkIndices(input.Raw(), opts.numEmbeddings); err != nil {
		return nil, err
	}
	if maxNorm, ok := opts.MaxNorm(); ok {
		backend.EmbeddingRenorm(weight.Raw(), input.Raw(), float64(maxNorm), float64(opts.normType))
	}

	return &bagCall{
		indices:          input.Raw(),
		perSampleWeights: pswRaw,
		result:           backend.EmbeddingBag(weight.Raw(), input.Raw(), offsetsRaw, pswRaw, opts.mode),
	}, nil
}

// rowOffsets returns the offsets of numBags bags of bagLen indices each.
func rowOffsets(numBags, bagLen int, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(tensor.Shape{numBags}, tensor.Int32, device)
	if err != nil {
		panic(fmt.Sprintf("embedding bag: failed to create offsets: %v", err))
	}
	offs := raw.AsInt32()
	for i := range offs {
		offs[i] = int32(i * bagLen) //nolint:gosec // G115: bounded by the input element count
	}
	return raw
}

func checkOffsets(offsets []int32, numIndices int) error {
	if offsets[0] != 0 {
		return inputError("offsets[0] must be 0, got %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return inputError("offsets must be non-decreasing, offsets[%d]=%d < offsets[%d]=%d",
				i, offsets[i], i-1, offsets[i-1])
		}
	}
	if last := int(offsets[len(offsets)-1]); last > numIndices {
		return inputError("last offset %d exceeds input length %d", last, numIndices)
	}
	return nil
}

func checkIndices(indices *tensor.RawTensor, numEmbeddings int) error {
	for i, idx := range indices.Indices() {
		if idx < 0 || idx >= numEmbeddings {
			return inputError("index %d at position %d out of range [0, %d)", idx, i, numEmbeddings)
		}
	}
	return nil
}

// accumulateWeightGrad runs the backward kernel selected by the sparse
// option and adds the result to p.
func accumulateWeightGrad[B tensor.Backend](p *Parameter[B], grad, indices *tensor.RawTensor, params tensor.GradParams, sparse bool) {
	backend := p.Tensor().Backend()
	if sparse {
		p.AccumulateSparseGrad(backend.EmbeddingSparseBackward(grad, indices, params))
		return
	}
	p.AccumulateGrad(tensor.New[float32, B](backend.EmbeddingBackward(grad, indices, params), backend))
}
