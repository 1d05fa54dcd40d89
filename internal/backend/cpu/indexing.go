package cpu

import (
	"fmt"
	"math"
	"sort"

	"github.com/born-ml/embedbag/internal/tensor"
)

// renormEps keeps the rescale factor finite for zero-norm rows.
const renormEps = 1e-7

// Embedding performs embedding lookup: gathers rows from weight by indices.
//
// weight: [numEmbeddings, embeddingDim]
// indices: [...] integer tensor
// Returns: [..., embeddingDim]
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	numEmbeddings, embeddingDim := tableShape("embedding", weight)
	idx := indexData("embedding", indices)

	result, err := tensor.NewRaw(indices.Shape().Append(embeddingDim), weight.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding: failed to create result tensor: %v", err))
	}

	switch weight.DType() {
	case tensor.Float32:
		gatherRows(result.AsFloat32(), weight.AsFloat32(), idx, numEmbeddings, embeddingDim)
	case tensor.Float64:
		gatherRows(result.AsFloat64(), weight.AsFloat64(), idx, numEmbeddings, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding: unsupported weight dtype %s", weight.DType()))
	}

	return result
}

// EmbeddingRenorm rescales, in place, each distinct row referenced by indices
// whose normType-norm exceeds maxNorm.
func (cpu *CPUBackend) EmbeddingRenorm(weight, indices *tensor.RawTensor, maxNorm, normType float64) {
	numEmbeddings, embeddingDim := tableShape("embedding renorm", weight)
	rows := uniqueSorted(indexData("embedding renorm", indices))

	switch weight.DType() {
	case tensor.Float32:
		renormRows(weight.AsFloat32(), rows, numEmbeddings, embeddingDim, maxNorm, normType)
	case tensor.Float64:
		renormRows(weight.AsFloat64(), rows, numEmbeddings, embeddingDim, maxNorm, normType)
	default:
		panic(fmt.Sprintf("embedding renorm: unsupported weight dtype %s", weight.DType()))
	}
}

func tableShape(op string, weight *tensor.RawTensor) (numEmbeddings, embeddingDim int) {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%s: weight must be 2D, got shape %v", op, shape))
	}
	return shape[0], shape[1]
}

func indexData(op string, indices *tensor.RawTensor) []int {
	if !indices.DType().IsInteger() {
		panic(fmt.Sprintf("%s: indices must be int32 or int64, got %s", op, indices.DType()))
	}
	return indices.Indices()
}

func gatherRows[F float32 | float64](dst, weight []F, indices []int, numEmbeddings, embeddingDim int) {
	for i, idx := range indices {
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}

		srcOffset := idx * embeddingDim
		dstOffset := i * embeddingDim
		copy(dst[dstOffset:dstOffset+embeddingDim], weight[srcOffset:srcOffset+embeddingDim])
	}
}

func renormRows[F float32 | float64](weight []F, rows []int, numEmbeddings, embeddingDim int, maxNorm, normType float64) {
	for _, row := range rows {
		if row < 0 || row >= numEmbeddings {
			panic(fmt.Sprintf("embedding renorm: index %d out of bounds [0, %d)", row, numEmbeddings))
		}

		vec := weight[row*embeddingDim : (row+1)*embeddingDim]
		norm := pNorm(vec, normType)
		if norm > maxNorm {
			scale := F(maxNorm / (norm + renormEps))
			for j := range vec {
				vec[j] *= scale
			}
		}
	}
}

func pNorm[F float32 | float64](vec []F, p float64) float64 {
	if math.IsInf(p, 1) {
		var m float64
		for _, v := range vec {
			m = math.Max(m, math.Abs(float64(v)))
		}
		return m
	}

	var sum float64
	for _, v := range vec {
		sum += math.Pow(math.Abs(float64(v)), p)
	}
	return math.Pow(sum, 1/p)
}

func uniqueSorted(values []int) []int {
	out := append([]int(nil), values...)
	sort.Ints(out)

	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
