package cpu

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingBackward scatter-adds grad rows into a dense weight gradient.
//
// grad: [..., embeddingDim] with one row per element of indices
// Returns: [params.NumWeights, embeddingDim]
//
// Rows equal to the padding index receive no gradient. With
// ScaleGradByFreq, each contribution is divided by the number of times its
// row occurs in indices.
func (cpu *CPUBackend) EmbeddingBackward(grad, indices *tensor.RawTensor, params tensor.GradParams) *tensor.RawTensor {
	idx := indexData("embedding backward", indices)
	embeddingDim := gradRowWidth("embedding backward", grad, len(idx))

	out, err := tensor.NewRaw(tensor.Shape{params.NumWeights, embeddingDim}, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding backward: failed to create result tensor: %v", err))
	}

	counts := rowCounts(idx, params)
	switch grad.DType() {
	case tensor.Float32:
		scatterGrad(out.AsFloat32(), grad.AsFloat32(), idx, counts, params, embeddingDim)
	case tensor.Float64:
		scatterGrad(out.AsFloat64(), grad.AsFloat64(), idx, counts, params, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding backward: unsupported dtype %s", grad.DType()))
	}

	return out
}

// EmbeddingSparseBackward computes the EmbeddingBackward gradient for the
// touched rows only. Values is nil when every index is the padding index.
func (cpu *CPUBackend) EmbeddingSparseBackward(grad, indices *tensor.RawTensor, params tensor.GradParams) *tensor.SparseRows {
	idx := indexData("embedding sparse backward", indices)
	embeddingDim := gradRowWidth("embedding sparse backward", grad, len(idx))

	var touched []int
	for _, row := range idx {
		if params.HasPadding && row == params.PaddingIdx {
			continue
		}
		touched = append(touched, row)
	}
	rows := uniqueSorted(touched)

	res := &tensor.SparseRows{
		Rows:       rows,
		DenseShape: tensor.Shape{params.NumWeights, embeddingDim},
	}
	if len(rows) == 0 {
		return res
	}

	slot := make(map[int]int, len(rows))
	for k, row := range rows {
		slot[row] = k
	}

	values, err := tensor.NewRaw(tensor.Shape{len(rows), embeddingDim}, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding sparse backward: failed to create values tensor: %v", err))
	}
	res.Values = values

	counts := rowCounts(idx, params)
	switch grad.DType() {
	case tensor.Float32:
		scatterGradSparse(values.AsFloat32(), grad.AsFloat32(), idx, slot, counts, params, embeddingDim)
	case tensor.Float64:
		scatterGradSparse(values.AsFloat64(), grad.AsFloat64(), idx, slot, counts, params, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding sparse backward: unsupported dtype %s", grad.DType()))
	}

	return res
}

func gradRowWidth(op string, grad *tensor.RawTensor, numIndices int) int {
	shape := grad.Shape()
	if len(shape) == 0 {
		panic(fmt.Sprintf("%s: gradient must have at least one dimension", op))
	}
	width := shape[len(shape)-1]
	if grad.NumElements() != numIndices*width {
		panic(fmt.Sprintf("%s: gradient shape %v does not match %d indices", op, shape, numIndices))
	}
	return width
}

// rowCounts returns per-row occurrence counts, or nil when frequency
// scaling is off.
func rowCounts(indices []int, params tensor.GradParams) map[int]int {
	if !params.ScaleGradByFreq {
		return nil
	}
	counts := make(map[int]int)
	for _, row := range indices {
		counts[row]++
	}
	return counts
}

func scatterGrad[F float32 | float64](dst, grad []F, indices []int, counts map[int]int, params tensor.GradParams, embeddingDim int) {
	for p, row := range indices {
		if params.HasPadding && row == params.PaddingIdx {
			continue
		}
		if row < 0 || row >= params.NumWeights {
			panic(fmt.Sprintf("embedding backward: index %d out of bounds [0, %d)", row, params.NumWeights))
		}

		scale := F(1)
		if counts != nil {
			scale = 1 / F(counts[row])
		}

		src := grad[p*embeddingDim : (p+1)*embeddingDim]
		acc := dst[row*embeddingDim : (row+1)*embeddingDim]
		for j, g := range src {
			acc[j] += scale * g
		}
	}
}

func scatterGradSparse[F float32 | float64](values, grad []F, indices []int, slot, counts map[int]int, params tensor.GradParams, embeddingDim int) {
	for p, row := range indices {
		if params.HasPadding && row == params.PaddingIdx {
			continue
		}
		if row < 0 || row >= params.NumWeights {
			panic(fmt.Sprintf("embedding sparse backward: index %d out of bounds [0, %d)", row, params.NumWeights))
		}

		scale := F(1)
		if counts != nil {
			scale = 1 / F(counts[row])
		}

		k := slot[row]
		src := grad[p*embeddingDim : (p+1)*embeddingDim]
		acc := values[k*embeddingDim : (k+1)*embeddingDim]
		for j, g := range src {
			acc[j] += scale * g
		}
	}
}
