package tensor

// Backend defines the interface that compute backends implement for the
// embedding lookup operators.
//
// Kernels assume their arguments were validated by the caller (the nn
// package does this); contract violations inside a kernel panic.
//
// Implementations:
//   - CPU: Pure Go (internal/backend/cpu)
type Backend interface {
	// Name returns the backend name (e.g., "CPU").
	Name() string

	// Device returns the compute device.
	Device() Device

	// Embedding gathers rows of weight [N, D] at indices [...].
	// Output shape is [..., D].
	Embedding(weight, indices *RawTensor) *RawTensor

	// EmbeddingRenorm rescales, in place, every row of weight referenced by
	// indices whose normType-norm exceeds maxNorm so that it has norm maxNorm.
	EmbeddingRenorm(weight, indices *RawTensor, maxNorm, normType float64)

	// EmbeddingBag gathers rows of weight for the flattened indices and
	// reduces them per bag. offsets[i] is the start of bag i; the last bag
	// runs to the end of indices. perSampleWeights may be nil.
	EmbeddingBag(weight, indices, offsets, perSampleWeights *RawTensor, mode BagMode) *BagResult

	// EmbeddingBackward accumulates grad [..., D] into a dense [NumWeights, D]
	// weight gradient.
	EmbeddingBackward(grad, indices *RawTensor, params GradParams) *RawTensor

	// EmbeddingSparseBackward computes the same gradient as EmbeddingBackward
	// restricted to the touched rows.
	EmbeddingSparseBackward(grad, indices *RawTensor, params GradParams) *SparseRows

	// EmbeddingBagInputGrad expands a bag gradient [numBags, D] into one
	// gradient row per looked-up index, shape [len(indices), D].
	EmbeddingBagInputGrad(grad *RawTensor, bag *BagResult, perSampleWeights *RawTensor, mode BagMode) *RawTensor
}

// GradParams carries the option values that shape an embedding gradient.
type GradParams struct {
	NumWeights      int  // Rows of the weight table
	PaddingIdx      int  // Non-negative row excluded from the gradient, valid when HasPadding
	HasPadding      bool // Whether PaddingIdx is in effect
	ScaleGradByFreq bool // Divide each row's gradient by its count in the batch
}

// BagResult is the output of an EmbeddingBag kernel plus the bookkeeping
// needed to route gradients back to the looked-up rows.
type BagResult struct {
	Output *RawTensor // [numBags, D]

	// BagOf maps each flattened index position to its bag.
	BagOf []int

	// BagSize is the number of indices in each bag (0 for empty bags).
	BagSize []int

	// MaxPos holds, for ModeMax only, the flattened index position that won
	// each output element [numBags*D]; -1 for empty bags.
	MaxPos []int
}
