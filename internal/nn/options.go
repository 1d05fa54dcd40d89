package nn

import (
	"math"

	"github.com/born-ml/embedbag/internal/tensor"
)

// defaultNormType is the p of the p-norm used by max-norm clipping.
const defaultNormType = 2.0

// optional holds a value that is either present or absent. The zero value
// is absent, so "unset" never collides with a legitimate zero.
type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) get() (T, bool) {
	return o.value, o.set
}

func validateSize(numEmbeddings, embeddingDim int) error {
	if numEmbeddings <= 0 {
		return constructionError("num_embeddings", "must be > 0, got %d", numEmbeddings)
	}
	if embeddingDim <= 0 {
		return constructionError("embedding_dim", "must be > 0, got %d", embeddingDim)
	}
	return nil
}

func validateNorm(maxNorm optional[float32], normType float32) error {
	if math.IsNaN(float64(normType)) || normType <= 0 {
		return conflictError("norm_type", "must be > 0, got %v", normType)
	}
	if v, ok := maxNorm.get(); ok && (math.IsNaN(float64(v)) || v <= 0) {
		return conflictError("max_norm", "must be > 0 when set, got %v", v)
	}
	return nil
}

func validateWeight[B tensor.Backend](weight *tensor.Tensor[float32, B], numEmbeddings, embeddingDim int) error {
	if weight == nil {
		return nil
	}
	want := tensor.Shape{numEmbeddings, embeddingDim}
	if !weight.Shape().Equal(want) {
		return conflictError("weight", "shape %v does not match (num_embeddings, embedding_dim) = %v", weight.Shape(), want)
	}
	return nil
}
