package nn

import (
	"github.com/born-ml/embedbag/internal/tensor"
)

// Randn creates a tensor with random values from standard normal distribution.
//
// Values are drawn from N(0, 1), the default initialization of lookup tables.
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// zeroRow clears row idx of a 2-D table.
func zeroRow[B tensor.Backend](t *tensor.Tensor[float32, B], idx int) {
	clear(t.Row(idx))
}
