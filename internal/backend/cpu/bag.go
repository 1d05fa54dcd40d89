package cpu

import (
	"fmt"

	"github.com/born-ml/embedbag/internal/tensor"
)

// EmbeddingBag gathers and reduces rows of weight per bag.
//
// weight: [numEmbeddings, embeddingDim]
// indices: integer tensor, read flattened
// offsets: [numBags] bag start positions into the flattened indices
// perSampleWeights: same element count as indices, or nil (sum mode only)
//
// Empty bags produce all-zero rows.
func (cpu *CPUBackend) EmbeddingBag(weight, indices, offsets, perSampleWeights *tensor.RawTensor, mode tensor.BagMode) *tensor.BagResult {
	numEmbeddings, embeddingDim := tableShape("embedding bag", weight)
	idx := indexData("embedding bag", indices)
	offs := indexData("embedding bag", offsets)

	if perSampleWeights != nil {
		if mode != tensor.BagSum {
			panic(fmt.Sprintf("embedding bag: per-sample weights require sum mode, got %s", mode))
		}
		if perSampleWeights.NumElements() != len(idx) {
			panic(fmt.Sprintf("embedding bag: %d per-sample weights for %d indices",
				perSampleWeights.NumElements(), len(idx)))
		}
		if perSampleWeights.DType() != weight.DType() {
			panic(fmt.Sprintf("embedding bag: per-sample weights dtype %s does not match weight dtype %s",
				perSampleWeights.DType(), weight.DType()))
		}
	}

	bagOf, bagSize := bagLayout(offs, len(idx))
	res := &tensor.BagResult{BagOf: bagOf, BagSize: bagSize}

	out, err := tensor.NewRaw(tensor.Shape{len(offs), embeddingDim}, weight.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding bag: failed to create result tensor: %v", err))
	}
	res.Output = out

	if mode == tensor.BagMax {
		res.MaxPos = make([]int, len(offs)*embeddingDim)
		for i := range res.MaxPos {
			res.MaxPos[i] = -1
		}
	}

	switch weight.DType() {
	case tensor.Float32:
		var psw []float32
		if perSampleWeights != nil {
			psw = perSampleWeights.AsFloat32()
		}
		reduceBags(out.AsFloat32(), weight.AsFloat32(), psw, idx, res, mode, numEmbeddings, embeddingDim)
	case tensor.Float64:
		var psw []float64
		if perSampleWeights != nil {
			psw = perSampleWeights.AsFloat64()
		}
		reduceBags(out.AsFloat64(), weight.AsFloat64(), psw, idx, res, mode, numEmbeddings, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding bag: unsupported weight dtype %s", weight.DType()))
	}

	return res
}

// EmbeddingBagInputGrad routes a bag gradient back to each looked-up position.
//
// grad: [numBags, embeddingDim]
// Returns: [len(bag.BagOf), embeddingDim]
func (cpu *CPUBackend) EmbeddingBagInputGrad(grad *tensor.RawTensor, bag *tensor.BagResult, perSampleWeights *tensor.RawTensor, mode tensor.BagMode) *tensor.RawTensor {
	numBags, embeddingDim := tableShape("embedding bag backward", grad)
	if numBags != len(bag.BagSize) {
		panic(fmt.Sprintf("embedding bag backward: gradient has %d bags, forward produced %d", numBags, len(bag.BagSize)))
	}

	out, err := tensor.NewRaw(tensor.Shape{len(bag.BagOf), embeddingDim}, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding bag backward: failed to create result tensor: %v", err))
	}

	switch grad.DType() {
	case tensor.Float32:
		var psw []float32
		if perSampleWeights != nil {
			psw = perSampleWeights.AsFloat32()
		}
		expandBagGrad(out.AsFloat32(), grad.AsFloat32(), psw, bag, mode, embeddingDim)
	case tensor.Float64:
		var psw []float64
		if perSampleWeights != nil {
			psw = perSampleWeights.AsFloat64()
		}
		expandBagGrad(out.AsFloat64(), grad.AsFloat64(), psw, bag, mode, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding bag backward: unsupported dtype %s", grad.DType()))
	}

	return out
}

// bagLayout assigns every index position to its bag. Positions before
// offsets[0] belong to no bag (-1).
func bagLayout(offsets []int, numIndices int) (bagOf, bagSize []int) {
	bagOf = make([]int, numIndices)
	for i := range bagOf {
		bagOf[i] = -1
	}
	bagSize = make([]int, len(offsets))

	for b, start := range offsets {
		end := numIndices
		if b+1 < len(offsets) {
			end = offsets[b+1]
		}
		if start < 0 || start > end || end > numIndices {
			panic(fmt.Sprintf("embedding bag: bag %d spans [%d, %d) outside [0, %d]", b, start, end, numIndices))
		}
		for p := start; p < end; p++ {
			bagOf[p] = b
		}
		bagSize[b] = end - start
	}
	return bagOf, bagSize
}

func reduceBags[F float32 | float64](out, weight, psw []F, indices []int, res *tensor.BagResult, mode tensor.BagMode, numEmbeddings, embeddingDim int) {
	for p, row := range indices {
		b := res.BagOf[p]
		if b < 0 {
			continue
		}
		if row < 0 || row >= numEmbeddings {
			panic(fmt.Sprintf("embedding bag: index %d out of bounds [0, %d)", row, numEmbeddings))
		}

		src := weight[row*embeddingDim : (row+1)*embeddingDim]
		dst := out[b*embeddingDim : (b+1)*embeddingDim]

		switch mode {
		case tensor.BagSum:
			scale := F(1)
			if psw != nil {
				scale = psw[p]
			}
			for j, v := range src {
				dst[j] += scale * v
			}
		case tensor.BagMean:
			for j, v := range src {
				dst[j] += v
			}
		case tensor.BagMax:
			winners := res.MaxPos[b*embeddingDim : (b+1)*embeddingDim]
			for j, v := range src {
				if winners[j] < 0 || v > dst[j] {
					dst[j] = v
					winners[j] = p
				}
			}
		default:
			panic(fmt.Sprintf("embedding bag: unknown mode %s", mode))
		}
	}

	if mode == tensor.BagMean {
		for b, size := range res.BagSize {
			if size == 0 {
				continue
			}
			dst := out[b*embeddingDim : (b+1)*embeddingDim]
			for j := range dst {
				dst[j] /= F(size)
			}
		}
	}
}

func expandBagGrad[F float32 | float64](out, grad, psw []F, bag *tensor.BagResult, mode tensor.BagMode, embeddingDim int) {
	for p, b := range bag.BagOf {
		if b < 0 {
			continue
		}

		src := grad[b*embeddingDim : (b+1)*embeddingDim]
		dst := out[p*embeddingDim : (p+1)*embeddingDim]

		switch mode {
		case tensor.BagSum:
			scale := F(1)
			if psw != nil {
				scale = psw[p]
			}
			for j, g := range src {
				dst[j] = scale * g
			}
		case tensor.BagMean:
			size := F(bag.BagSize[b])
			for j, g := range src {
				dst[j] = g / size
			}
		case tensor.BagMax:
			winners := bag.MaxPos[b*embeddingDim : (b+1)*embeddingDim]
			for j, g := range src {
				if winners[j] == p {
					dst[j] = g
				}
			}
		default:
			panic(fmt.Sprintf("embedding bag backward: unknown mode %s", mode))
		}
	}
}
