package cpu

import (
	"testing"

	"github.com/born-ml/embedbag/internal/tensor"
	"github.com/stretchr/testify/require"
)

func rawFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func rawInt32(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsInt32(), data)
	return raw
}

// table returns the 4x2 weight {{0,1},{2,3},{4,5},{6,7}}.
func table(t *testing.T) *tensor.RawTensor {
	t.Helper()
	return rawFloat32(t, tensor.Shape{4, 2}, []float32{0, 1, 2, 3, 4, 5, 6, 7})
}
