package nn_test

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/embedbag/internal/backend/cpu"
	"github.com/born-ml/embedbag/internal/nn"
	"github.com/born-ml/embedbag/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendT = *cpu.CPUBackend

func embeddingOpts(t *testing.T, n, d int) *nn.EmbeddingOptions[backendT] {
	t.Helper()
	opts, err := nn.NewEmbeddingOptions[backendT](n, d)
	require.NoError(t, err)
	return opts
}

func bagOpts(t *testing.T, n, d int) *nn.EmbeddingBagOptions[backendT] {
	t.Helper()
	opts, err := nn.NewEmbeddingBagOptions[backendT](n, d)
	require.NoError(t, err)
	return opts
}

func assertOptionError(t *testing.T, err error, kind error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)

	var oe *nn.OptionError
	require.True(t, errors.As(err, &oe), "want *OptionError, got %T", err)
	assert.Equal(t, field, oe.Field)
}

func TestNewOptions_RequiresPositiveSizes(t *testing.T) {
	tests := []struct {
		name  string
		n, d  int
		field string
	}{
		{"zero rows", 0, 4, "num_embeddings"},
		{"negative rows", -1, 4, "num_embeddings"},
		{"zero dim", 10, 0, "embedding_dim"},
		{"negative dim", 10, -3, "embedding_dim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nn.NewEmbeddingOptions[backendT](tt.n, tt.d)
			assertOptionError(t, err, nn.ErrConstruction, tt.field)

			_, err = nn.NewEmbeddingBagOptions[backendT](tt.n, tt.d)
			assertOptionError(t, err, nn.ErrConstruction, tt.field)
		})
	}
}

func TestEmbeddingOptions_Defaults(t *testing.T) {
	opts := embeddingOpts(t, 10, 2)

	assert.Equal(t, 10, opts.NumEmbeddings())
	assert.Equal(t, 2, opts.EmbeddingDim())
	_, ok := opts.PaddingIdx()
	assert.False(t, ok)
	_, ok = opts.MaxNorm()
	assert.False(t, ok)
	assert.Equal(t, float32(2), opts.NormType())
	assert.False(t, opts.ScaleGradByFreq())
	assert.False(t, opts.Sparse())
	assert.Nil(t, opts.Weight())
	assert.Equal(t, tensor.Shape{10, 2}, opts.WeightShape())
	assert.NoError(t, opts.Validate())
}

func TestEmbeddingBagOptions_Defaults(t *testing.T) {
	opts := bagOpts(t, 10, 4)

	assert.Equal(t, 10, opts.NumEmbeddings())
	assert.Equal(t, 4, opts.EmbeddingDim())
	assert.Equal(t, nn.ModeMean, opts.Mode())
	_, ok := opts.MaxNorm()
	assert.False(t, ok)
	assert.Equal(t, float32(2), opts.NormType())
	assert.False(t, opts.ScaleGradByFreq())
	assert.False(t, opts.Sparse())
	assert.Nil(t, opts.Weight())
	assert.Nil(t, opts.Offsets())
	assert.Nil(t, opts.PerSampleWeights())
	assert.NoError(t, opts.Validate())
}

func TestEmbeddingOptions_PaddingIdxRange(t *testing.T) {
	const n = 10

	for idx := -n - 2; idx <= n+1; idx++ {
		opts := embeddingOpts(t, n, 3).WithPaddingIdx(idx)
		err := opts.Validate()

		if idx >= -n && idx < n {
			assert.NoError(t, err, "padding_idx %d", idx)
			resolved, ok := opts.ResolvedPaddingIdx()
			assert.True(t, ok)
			assert.Equal(t, (idx+n)%n, resolved)
			continue
		}
		assertOptionError(t, err, nn.ErrConfigConflict, "padding_idx")
	}
}

func TestEmbeddingOptions_PaddingIdxNotClamped(t *testing.T) {
	opts := embeddingOpts(t, 10, 3).WithPaddingIdx(10)

	require.Error(t, opts.Validate())
	idx, ok := opts.PaddingIdx()
	assert.True(t, ok)
	assert.Equal(t, 10, idx)
}

func TestOptions_NormRanges(t *testing.T) {
	tests := []struct {
		name     string
		maxNorm  *float32
		normType float32
		field    string
	}{
		{name: "default", normType: 2},
		{name: "l1", normType: 1},
		{name: "fractional p", normType: 0.5},
		{name: "infinity", normType: float32(math.Inf(1))},
		{name: "zero p", normType: 0, field: "norm_type"},
		{name: "negative p", normType: -2, field: "norm_type"},
		{name: "NaN p", normType: float32(math.NaN()), field: "norm_type"},
		{name: "positive max norm", maxNorm: ptr[float32](1), normType: 2},
		{name: "zero max norm", maxNorm: ptr[float32](0), normType: 2, field: "max_norm"},
		{name: "negative max norm", maxNorm: ptr[float32](-1), normType: 2, field: "max_norm"},
		{name: "NaN max norm", maxNorm: ptr(float32(math.NaN())), normType: 2, field: "max_norm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := embeddingOpts(t, 5, 2).WithNormType(tt.normType)
			b := bagOpts(t, 5, 2).WithNormType(tt.normType)
			if tt.maxNorm != nil {
				e.WithMaxNorm(*tt.maxNorm)
				b.WithMaxNorm(*tt.maxNorm)
			}

			for _, err := range []error{e.Validate(), b.Validate()} {
				if tt.field == "" {
					assert.NoError(t, err)
					continue
				}
				assertOptionError(t, err, nn.ErrConfigConflict, tt.field)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestEmbeddingBagOptions_ModeConflicts(t *testing.T) {
	backend := cpu.New()
	psw := tensor.Full[float32](tensor.Shape{3}, 1, backend)

	tests := []struct {
		name  string
		setup func(o *nn.EmbeddingBagOptions[backendT])
		field string
	}{
		{
			name:  "max plain",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.ModeMax) },
		},
		{
			name:  "max sparse",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.ModeMax).WithSparse(true) },
			field: "sparse",
		},
		{
			name:  "max scale grad",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.ModeMax).WithScaleGradByFreq(true) },
			field: "scale_grad_by_freq",
		},
		{
			name: "sum sparse scale grad",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) {
				o.WithMode(nn.ModeSum).WithSparse(true).WithScaleGradByFreq(true)
			},
		},
		{
			name: "mean sparse scale grad",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) {
				o.WithSparse(true).WithScaleGradByFreq(true)
			},
		},
		{
			name:  "sum weights",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.ModeSum).WithPerSampleWeights(psw) },
		},
		{
			name:  "mean weights",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithPerSampleWeights(psw) },
			field: "per_sample_weights",
		},
		{
			name:  "max weights",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.ModeMax).WithPerSampleWeights(psw) },
			field: "per_sample_weights",
		},
		{
			name:  "unknown mode",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) { o.WithMode(nn.EmbeddingBagMode(7)) },
			field: "mode",
		},
		{
			name: "2-D offsets",
			setup: func(o *nn.EmbeddingBagOptions[backendT]) {
				o.WithOffsets(tensor.Zeros[int32](tensor.Shape{2, 2}, backend))
			},
			field: "offsets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := bagOpts(t, 10, 4)
			tt.setup(opts)

			err := opts.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assertOptionError(t, err, nn.ErrConfigConflict, tt.field)
		})
	}
}

func TestOptions_WeightShape(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name  string
		shape tensor.Shape
		ok    bool
	}{
		{"matching", tensor.Shape{10, 4}, true},
		{"extra row", tensor.Shape{11, 4}, false},
		{"wrong dim", tensor.Shape{10, 5}, false},
		{"transposed", tensor.Shape{4, 10}, false},
		{"1-D", tensor.Shape{40}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tensor.Zeros[float32](tt.shape, backend)

			errs := []error{
				embeddingOpts(t, 10, 4).WithWeight(w).Validate(),
				bagOpts(t, 10, 4).WithWeight(w).Validate(),
			}
			for _, err := range errs {
				if tt.ok {
					assert.NoError(t, err)
					continue
				}
				assertOptionError(t, err, nn.ErrConfigConflict, "weight")
			}
		})
	}
}

func TestOptions_LastSetterWins(t *testing.T) {
	e := embeddingOpts(t, 10, 2).
		WithPaddingIdx(20).
		WithPaddingIdx(3).
		WithSparse(true).
		WithSparse(false)

	require.NoError(t, e.Validate())
	idx, _ := e.PaddingIdx()
	assert.Equal(t, 3, idx)
	assert.False(t, e.Sparse())

	e.WithNormType(1.0).WithNormType(3.0)
	assert.Equal(t, float32(3.0), e.NormType())

	b := bagOpts(t, 10, 2).
		WithMode(nn.ModeMax).
		WithSparse(true).
		WithMode(nn.ModeSum)

	require.NoError(t, b.Validate())
	assert.Equal(t, nn.ModeSum, b.Mode())
	assert.True(t, b.Sparse())

	b.WithNormType(1.0).WithNormType(3.0)
	assert.Equal(t, float32(3.0), b.NormType())
}

func TestOptions_RoundTrip(t *testing.T) {
	backend := cpu.New()

	t.Run("embedding", func(t *testing.T) {
		weight := tensor.Zeros[float32](tensor.Shape{10, 4}, backend)
		orig := embeddingOpts(t, 10, 4).
			WithPaddingIdx(-2).
			WithMaxNorm(1.5).
			WithNormType(3).
			WithScaleGradByFreq(true).
			WithSparse(true).
			WithWeight(weight)
		require.NoError(t, orig.Validate())

		rebuilt := embeddingOpts(t, orig.NumEmbeddings(), orig.EmbeddingDim()).
			WithNormType(orig.NormType()).
			WithScaleGradByFreq(orig.ScaleGradByFreq()).
			WithSparse(orig.Sparse()).
			WithWeight(orig.Weight())
		if idx, ok := orig.PaddingIdx(); ok {
			rebuilt.WithPaddingIdx(idx)
		}
		if v, ok := orig.MaxNorm(); ok {
			rebuilt.WithMaxNorm(v)
		}
		require.NoError(t, rebuilt.Validate())

		idx, idxOK := rebuilt.PaddingIdx()
		assert.True(t, idxOK)
		assert.Equal(t, -2, idx)
		maxNorm, maxOK := rebuilt.MaxNorm()
		assert.True(t, maxOK)
		assert.Equal(t, float32(1.5), maxNorm)
		assert.Equal(t, orig.NumEmbeddings(), rebuilt.NumEmbeddings())
		assert.Equal(t, orig.EmbeddingDim(), rebuilt.EmbeddingDim())
		assert.Equal(t, float32(3), rebuilt.NormType())
		assert.True(t, rebuilt.ScaleGradByFreq())
		assert.True(t, rebuilt.Sparse())
		assert.Same(t, weight, rebuilt.Weight())
	})

	t.Run("embedding bag", func(t *testing.T) {
		weight := tensor.Zeros[float32](tensor.Shape{10, 4}, backend)
		offsets, err := tensor.FromSlice([]int32{0, 2}, tensor.Shape{2}, backend)
		require.NoError(t, err)
		psw := tensor.Full[float32](tensor.Shape{5}, 0.5, backend)

		orig := bagOpts(t, 10, 4).
			WithMaxNorm(2).
			WithNormType(1).
			WithScaleGradByFreq(true).
			WithMode(nn.ModeSum).
			WithSparse(true).
			WithWeight(weight).
			WithOffsets(offsets).
			WithPerSampleWeights(psw)
		require.NoError(t, orig.Validate())

		rebuilt := bagOpts(t, orig.NumEmbeddings(), orig.EmbeddingDim()).
			WithNormType(orig.NormType()).
			WithScaleGradByFreq(orig.ScaleGradByFreq()).
			WithMode(orig.Mode()).
			WithSparse(orig.Sparse()).
			WithWeight(orig.Weight()).
			WithOffsets(orig.Offsets()).
			WithPerSampleWeights(orig.PerSampleWeights())
		if v, ok := orig.MaxNorm(); ok {
			rebuilt.WithMaxNorm(v)
		}
		require.NoError(t, rebuilt.Validate())

		maxNorm, maxOK := rebuilt.MaxNorm()
		assert.True(t, maxOK)
		assert.Equal(t, float32(2), maxNorm)
		assert.Equal(t, orig.NumEmbeddings(), rebuilt.NumEmbeddings())
		assert.Equal(t, orig.EmbeddingDim(), rebuilt.EmbeddingDim())
		assert.Equal(t, float32(1), rebuilt.NormType())
		assert.True(t, rebuilt.ScaleGradByFreq())
		assert.Equal(t, nn.ModeSum, rebuilt.Mode())
		assert.True(t, rebuilt.Sparse())
		assert.Same(t, weight, rebuilt.Weight())
		assert.Same(t, offsets, rebuilt.Offsets())
		assert.Same(t, psw, rebuilt.PerSampleWeights())
	})
}

func TestOptions_WithWeightNilRestoresDefault(t *testing.T) {
	backend := cpu.New()
	bad := tensor.Zeros[float32](tensor.Shape{3, 3}, backend)

	opts := embeddingOpts(t, 10, 2).WithWeight(bad)
	require.Error(t, opts.Validate())

	opts.WithWeight(nil)
	assert.NoError(t, opts.Validate())
	assert.Nil(t, opts.Weight())
}

func TestOptions_SettersReturnReceiver(t *testing.T) {
	e := embeddingOpts(t, 10, 2)
	assert.Same(t, e, e.WithMaxNorm(1).WithNormType(1).WithScaleGradByFreq(true))

	b := bagOpts(t, 10, 2)
	assert.Same(t, b, b.WithMode(nn.ModeSum).WithOffsets(nil).WithPerSampleWeights(nil))
}

func TestOptions_Clone(t *testing.T) {
	orig := embeddingOpts(t, 10, 2).WithPaddingIdx(1)
	clone := orig.Clone().WithPaddingIdx(5).WithMaxNorm(2)

	idx, _ := orig.PaddingIdx()
	assert.Equal(t, 1, idx)
	_, ok := orig.MaxNorm()
	assert.False(t, ok)

	idx, _ = clone.PaddingIdx()
	assert.Equal(t, 5, idx)
}

func TestOptionError_Message(t *testing.T) {
	err := embeddingOpts(t, 10, 2).WithPaddingIdx(12).Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration conflict")
	assert.Contains(t, err.Error(), "padding_idx")
	assert.Contains(t, err.Error(), "12")
}
