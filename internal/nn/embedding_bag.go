package nn

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingBag computes sums, means or maxima over bags of embeddings
// without materializing the intermediate [N, EmbedDim] lookups.
//
// Inputs per call:
//   - input [B, L]: B bags of L indices each (offsets ignored), or
//   - input [N] with offsets [B]: bag i spans [offsets[i], offsets[i+1])
//
// Output: [B, EmbedDim]. Empty bags yield zero rows.
//
// Example:
//
//	opts, _ := nn.NewEmbeddingBagOptions[*cpu.CPUBackend](10, 3)
//	bag, err := nn.NewEmbeddingBag(opts.WithMode(nn.ModeSum), backend)
//	if err != nil {
//	    return err
//	}
//
//	input, _ := tensor.FromSlice([]int32{1, 2, 4, 5, 4, 3, 2, 9}, tensor.Shape{8}, backend)
//	offsets, _ := tensor.FromSlice([]int32{0, 4}, tensor.Shape{2}, backend)
//	out, err := bag.Forward(input, offsets, nil) // [2, 3]
type EmbeddingBag[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings
	EmbedDim int           // Embedding dimension

	opts  *EmbeddingBagOptions[B]
	saved *bagCall
}

// NewEmbeddingBag creates an EmbeddingBag layer from validated options.
//
// The weight is adopted from the options or drawn from N(0, 1). Offsets and
// per-sample weights stored in the options are not used by the layer; they
// are passed to each Forward call instead.
func NewEmbeddingBag[B tensor.Backend](opts *EmbeddingBagOptions[B], backend B) (*EmbeddingBag[B], error) {
	if opts == nil {
		return nil, fmt.Errorf("embedding bag: %w", inputError("options are nil"))
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("embedding bag: %w", err)
	}

	frozen := opts.Clone().WithOffsets(nil).WithPerSampleWeights(nil)
	weight := frozen.Weight()
	if weight == nil {
		weight = Randn(frozen.WeightShape(), backend)
		frozen.WithWeight(weight)
	}

	return &EmbeddingBag[B]{
		Weight:   NewParameter[B]("embedding_bag.weight", weight),
		NumEmbed: frozen.numEmbeddings,
		EmbedDim: frozen.embeddingDim,
		opts:     frozen,
	}, nil
}

// EmbeddingBagFromPretrained creates an EmbeddingBag layer around a
// pretrained table. opts may be nil for defaults (mean mode).
func EmbeddingBagFromPretrained[B tensor.Backend](weight *tensor.Tensor[float32, B], freeze bool, opts *EmbeddingBagOptions[B]) (*EmbeddingBag[B], error) {
	if weight == nil || weight.NDim() != 2 {
		return nil, fmt.Errorf("embedding bag: %w", conflictError("weight", "pretrained weight must be 2-D"))
	}
	if opts == nil {
		var err error
		opts, err = NewEmbeddingBagOptions[B](weight.Shape()[0], weight.Shape()[1])
		if err != nil {
			return nil, fmt.Errorf("embedding bag: %w", err)
		}
	}

	bag, err := NewEmbeddingBag(opts.Clone().WithWeight(weight), weight.Backend())
	if err != nil {
		return nil, err
	}
	bag.Weight.SetRequiresGrad(!freeze)
	return bag, nil
}

// Mode returns the reduction mode.
func (e *EmbeddingBag[B]) Mode() EmbeddingBagMode {
	return e.opts.mode
}

// Options returns a copy of the options the layer was built with.
func (e *EmbeddingBag[B]) Options() *EmbeddingBagOptions[B] {
	return e.opts.Clone()
}

// Forward reduces the embeddings of each bag.
//
// offsets is required for 1-D input and ignored for 2-D input.
// perSampleWeights may be nil; when given it must match the input shape
// and the mode must be ModeSum.
func (e *EmbeddingBag[B]) Forward(
	input *tensor.Tensor[int32, B],
	offsets *tensor.Tensor[int32, B],
	perSampleWeights *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], error) {
	call, err := embeddingBag(input, offsets, perSampleWeights, e.Weight.Tensor(), e.opts)
	if err != nil {
		return nil, fmt.Errorf("embedding bag: %w", err)
	}
	e.saved = call
	return tensor.New[float32, B](call.result.Output, e.Weight.Tensor().Backend()), nil
}

// Backward accumulates the weight gradient for the most recent Forward call.
//
// gradOutput must have shape [B, EmbedDim]. Sum routes each bag gradient to
// its rows scaled by the per-sample weight, Mean divides it by the bag size
// and Max routes each element only to the row that won it.
func (e *EmbeddingBag[B]) Backward(gradOutput *tensor.Tensor[float32, B]) error {
	if e.saved == nil {
		return fmt.Errorf("embedding bag backward: no forward pass recorded")
	}
	want := e.saved.result.Output.Shape()
	if gradOutput == nil || !gradOutput.Shape().Equal(want) {
		return fmt.Errorf("embedding bag backward: %w", inputError("gradient shape must be %v", want))
	}
	if !e.Weight.RequiresGrad() {
		return nil
	}

	backend := e.Weight.Tensor().Backend()
	perIndex := backend.EmbeddingBagInputGrad(gradOutput.Raw(), e.saved.result, e.saved.perSampleWeights, e.opts.mode)
	accumulateWeightGrad(e.Weight, perIndex, e.saved.indices, e.opts.gradParams(), e.opts.sparse)
	return nil
}

// Parameters returns the list of trainable parameters.
func (e *EmbeddingBag[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
