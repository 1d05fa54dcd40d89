package nn_test

import (
	"testing"

	"github.com/born-ml/embedbag/internal/backend/cpu"
	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bagTable returns the 4x2 table {{0,1},{2,3},{4,5},{6,7}}.
func bagTable(t *testing.T, backend *cpu.CPUBackend) *tensor.Tensor[float32, backendT] {
	t.Helper()
	w, err := tensor.FromSlice([]float32{0, 1, 2, 3, 4, 5, 6, 7}, tensor.Shape{4, 2}, backend)
	require.NoError(t, err)
	return w
}

func newBag(t *testing.T, backend *cpu.CPUBackend, mode nn.EmbeddingBagMode) *nn.EmbeddingBag[backendT] {
	t.Helper()
	bag, err := nn.NewEmbeddingBag(bagOpts(t, 4, 2).WithMode(mode).WithWeight(bagTable(t, backend)), backend)
	require.NoError(t, err)
	return bag
}

func TestEmbeddingBag_Forward1D(t *testing.T) {
	backend := cpu.New()

	// Bags: {1, 2}, {}, {3, 0, 3}
	input := []int32{1, 2, 3, 0, 3}
	offsets := []int32{0, 2, 2}

	tests := []struct {
		mode nn.EmbeddingBagMode
		want []float32
	}{
		{nn.ModeSum, []float32{6, 8, 0, 0, 12, 15}},
		{nn.ModeMean, []float32{3, 4, 0, 0, 4, 5}},
		{nn.ModeMax, []float32{4, 5, 0, 0, 6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			bag := newBag(t, backend, tt.mode)

			out, err := bag.Forward(
				indices(t, backend, tensor.Shape{5}, input...),
				indices(t, backend, tensor.Shape{3}, offsets...),
				nil,
			)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
			assert.Equal(t, tt.want, out.Data())
		})
	}
}

func TestEmbeddingBag_Forward2DIgnoresOffsets(t *testing.T) {
	backend := cpu.New()
	bag := newBag(t, backend, nn.ModeSum)
	input := indices(t, backend, tensor.Shape{2, 2}, 0, 1, 2, 3)

	out, err := bag.Forward(input, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 10, 12}, out.Data())

	// Bogus offsets are ignored for 2-D input.
	withOffsets, err := bag.Forward(input, indices(t, backend, tensor.Shape{1}, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, out.Data(), withOffsets.Data())
}

func TestEmbeddingBag_PerSampleWeights(t *testing.T) {
	backend := cpu.New()
	input := indices(t, backend, tensor.Shape{3}, 1, 2, 3)
	offsets := indices(t, backend, tensor.Shape{2}, 0, 2)
	psw, err := tensor.FromSlice([]float32{2, 0.5, -1}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	sum := newBag(t, backend, nn.ModeSum)
	out, err := sum.Forward(input, offsets, psw)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 8.5, -6, -7}, out.Data())

	mean := newBag(t, backend, nn.ModeMean)
	_, err = mean.Forward(input, offsets, psw)
	assertOptionError(t, err, nn.ErrConfigConflict, "per_sample_weights")

	badShape, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	_, err = sum.Forward(input, offsets, badShape)
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestEmbeddingBag_InvalidInput(t *testing.T) {
	backend := cpu.New()
	bag := newBag(t, backend, nn.ModeMean)
	input := indices(t, backend, tensor.Shape{4}, 0, 1, 2, 3)

	tests := []struct {
		name    string
		input   *tensor.Tensor[int32, backendT]
		offsets *tensor.Tensor[int32, backendT]
	}{
		{"missing offsets", input, nil},
		{"first offset not zero", input, indices(t, backend, tensor.Shape{2}, 1, 2)},
		{"decreasing offsets", input, indices(t, backend, tensor.Shape{3}, 0, 3, 2)},
		{"offset past input", input, indices(t, backend, tensor.Shape{2}, 0, 5)},
		{"2-D offsets", input, indices(t, backend, tensor.Shape{1, 2}, 0, 2)},
		{"index out of range", indices(t, backend, tensor.Shape{2}, 0, 4), indices(t, backend, tensor.Shape{1}, 0)},
		{"3-D input", indices(t, backend, tensor.Shape{1, 1, 2}, 0, 1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bag.Forward(tt.input, tt.offsets, nil)
			assert.ErrorIs(t, err, nn.ErrInvalidInput)
		})
	}
}

func TestEmbeddingBag_OffsetAtEndGivesEmptyLastBag(t *testing.T) {
	backend := cpu.New()
	bag := newBag(t, backend, nn.ModeSum)

	out, err := bag.Forward(
		indices(t, backend, tensor.Shape{2}, 1, 1),
		indices(t, backend, tensor.Shape{2}, 0, 2),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 6, 0, 0}, out.Data())
}

func TestNewEmbeddingBag_Conflicts(t *testing.T) {
	backend := cpu.New()

	_, err := nn.NewEmbeddingBag(bagOpts(t, 4, 2).WithMode(nn.ModeMax).WithSparse(true), backend)
	assertOptionError(t, err, nn.ErrConfigConflict, "sparse")

	_, err = nn.NewEmbeddingBag(bagOpts(t, 4, 2).WithMode(nn.ModeMax).WithScaleGradByFreq(true), backend)
	assertOptionError(t, err, nn.ErrConfigConflict, "scale_grad_by_freq")

	_, err = nn.NewEmbeddingBag[backendT](nil, backend)
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestNewEmbeddingBag_DropsCallOptions(t *testing.T) {
	backend := cpu.New()
	offsets := indices(t, backend, tensor.Shape{1}, 0)
	psw := tensor.Full[float32](tensor.Shape{2}, 1, backend)

	bag, err := nn.NewEmbeddingBag(
		bagOpts(t, 4, 2).WithMode(nn.ModeSum).WithOffsets(offsets).WithPerSampleWeights(psw),
		backend,
	)
	require.NoError(t, err)

	opts := bag.Options()
	assert.Nil(t, opts.Offsets())
	assert.Nil(t, opts.PerSampleWeights())
	assert.Equal(t, tensor.Shape{4, 2}, bag.Weight.Tensor().Shape())
	assert.Equal(t, nn.ModeSum, bag.Mode())
}

func TestEmbeddingBag_Backward(t *testing.T) {
	backend := cpu.New()

	// Bags: {0, 3}, {1, 1}
	input := []int32{0, 3, 1, 1}
	offsets := []int32{0, 2}
	gradOut := []float32{1, 2, 3, 4}

	tests := []struct {
		name  string
		mode  nn.EmbeddingBagMode
		scale bool
		want  []float32 // dense 4x2
	}{
		{"sum", nn.ModeSum, false, []float32{1, 2, 6, 8, 0, 0, 1, 2}},
		{"mean", nn.ModeMean, false, []float32{0.5, 1, 3, 4, 0, 0, 0.5, 1}},
		{"sum scaled by frequency", nn.ModeSum, true, []float32{1, 2, 3, 4, 0, 0, 1, 2}},
		// bag 0 max is row 3 in both columns; bag 1 ties go to the first position
		{"max", nn.ModeMax, false, []float32{0, 0, 3, 4, 0, 0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := bagOpts(t, 4, 2).WithMode(tt.mode).WithScaleGradByFreq(tt.scale).WithWeight(bagTable(t, backend))
			bag, err := nn.NewEmbeddingBag(opts, backend)
			require.NoError(t, err)

			_, err = bag.Forward(
				indices(t, backend, tensor.Shape{4}, input...),
				indices(t, backend, tensor.Shape{2}, offsets...),
				nil,
			)
			require.NoError(t, err)

			grad, err := tensor.FromSlice(gradOut, tensor.Shape{2, 2}, backend)
			require.NoError(t, err)
			require.NoError(t, bag.Backward(grad))

			require.NotNil(t, bag.Weight.Grad())
			assert.Equal(t, tt.want, bag.Weight.Grad().Data())
		})
	}
}

func TestEmbeddingBag_ModeFixedAtConstruction(t *testing.T) {
	backend := cpu.New()
	bag := newBag(t, backend, nn.ModeSum)

	bag.Options().WithMode(nn.ModeMax)
	assert.Equal(t, nn.ModeSum, bag.Mode())

	_, err := bag.Forward(indices(t, backend, tensor.Shape{1, 2}, 0, 3), nil, nil)
	require.NoError(t, err)

	grad := tensor.Full[float32](tensor.Shape{1, 2}, 1, backend)
	require.NoError(t, bag.Backward(grad))
	assert.Equal(t, []float32{1, 1, 0, 0, 0, 0, 1, 1}, bag.Weight.Grad().Data())
}

func TestEmbeddingBag_BackwardSparseWeighted(t *testing.T) {
	backend := cpu.New()
	opts := bagOpts(t, 4, 2).WithMode(nn.ModeSum).WithSparse(true)
	bag, err := nn.NewEmbeddingBag(opts, backend)
	require.NoError(t, err)

	psw, err := tensor.FromSlice([]float32{2, -1}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)
	_, err = bag.Forward(indices(t, backend, tensor.Shape{1, 2}, 2, 0), nil, psw)
	require.NoError(t, err)

	grad := tensor.Full[float32](tensor.Shape{1, 2}, 1, backend)
	require.NoError(t, bag.Backward(grad))

	sparse := bag.Weight.SparseGrad()
	require.NotNil(t, sparse)
	assert.Nil(t, bag.Weight.Grad())
	assert.Equal(t, []int{0, 2}, sparse.Rows)
	assert.Equal(t, []float32{-1, -1, 0, 0, 2, 2, 0, 0}, sparse.ToDense().AsFloat32())
}

func TestEmbeddingBag_BackwardErrors(t *testing.T) {
	backend := cpu.New()
	bag := newBag(t, backend, nn.ModeSum)
	grad := tensor.Zeros[float32](tensor.Shape{1, 2}, backend)

	assert.Error(t, bag.Backward(grad), "no forward pass")

	_, err := bag.Forward(indices(t, backend, tensor.Shape{2, 2}, 0, 1, 2, 3), nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, bag.Backward(grad), nn.ErrInvalidInput)
}

func TestEmbeddingBagFromPretrained(t *testing.T) {
	backend := cpu.New()
	w := bagTable(t, backend)

	bag, err := nn.EmbeddingBagFromPretrained(w, true, nil)
	require.NoError(t, err)
	assert.Equal(t, nn.ModeMean, bag.Mode())
	assert.False(t, bag.Weight.RequiresGrad())
	assert.Equal(t, "embedding_bag.weight", bag.Parameters()[0].Name())

	_, err = bag.Forward(indices(t, backend, tensor.Shape{1, 2}, 0, 1), nil, nil)
	require.NoError(t, err)
	require.NoError(t, bag.Backward(tensor.Full[float32](tensor.Shape{1, 2}, 1, backend)))
	assert.Nil(t, bag.Weight.Grad())

	_, err = nn.EmbeddingBagFromPretrained(w, false, bagOpts(t, 5, 2))
	assertOptionError(t, err, nn.ErrConfigConflict, "weight")
}
