package tensor

import "fmt"

// SparseRows is a row-sparse gradient of a 2-D table.
//
// Rows is sorted and free of duplicates; Values[k] is the gradient of row
// Rows[k]. Every row not listed has a zero gradient. Values is nil when no
// row was touched.
type SparseRows struct {
	Rows       []int
	Values     *RawTensor // [len(Rows), D]
	DenseShape Shape      // [NumWeights, D]
}

// NNZ returns the number of stored rows.
func (s *SparseRows) NNZ() int {
	return len(s.Rows)
}

// ToDense materializes the gradient as a [NumWeights, D] tensor.
func (s *SparseRows) ToDense() *RawTensor {
	if s.Values == nil {
		out, err := NewRaw(s.DenseShape, Float32, CPU)
		if err != nil {
			panic(fmt.Sprintf("sparse rows: %v", err))
		}
		return out
	}

	out, err := NewRaw(s.DenseShape, s.Values.DType(), s.Values.Device())
	if err != nil {
		panic(fmt.Sprintf("sparse rows: %v", err))
	}

	dim := s.DenseShape[1]
	switch s.Values.DType() {
	case Float32:
		scatterRows(out.AsFloat32(), s.Values.AsFloat32(), s.Rows, dim)
	case Float64:
		scatterRows(out.AsFloat64(), s.Values.AsFloat64(), s.Rows, dim)
	default:
		panic(fmt.Sprintf("sparse rows: unsupported dtype %s", s.Values.DType()))
	}
	return out
}

func scatterRows[F float32 | float64](dst, values []F, rows []int, dim int) {
	for k, row := range rows {
		copy(dst[row*dim:(row+1)*dim], values[k*dim:(k+1)*dim])
	}
}

// Add returns the sum of two sparse gradients of the same dense shape.
func (s *SparseRows) Add(other *SparseRows) *SparseRows {
	if !s.DenseShape.Equal(other.DenseShape) {
		panic(fmt.Sprintf("sparse rows: shape mismatch %v vs %v", s.DenseShape, other.DenseShape))
	}
	if s.Values == nil {
		return other
	}
	if other.Values == nil {
		return s
	}
	if s.Values.DType() != other.Values.DType() {
		panic(fmt.Sprintf("sparse rows: dtype mismatch %s vs %s", s.Values.DType(), other.Values.DType()))
	}

	rows := mergeRows(s.Rows, other.Rows)
	values, err := NewRaw(Shape{len(rows), s.DenseShape[1]}, s.Values.DType(), s.Values.Device())
	if err != nil {
		panic(fmt.Sprintf("sparse rows: %v", err))
	}

	dim := s.DenseShape[1]
	switch values.DType() {
	case Float32:
		accumulateRows(values.AsFloat32(), rows, s.Rows, s.Values.AsFloat32(), dim)
		accumulateRows(values.AsFloat32(), rows, other.Rows, other.Values.AsFloat32(), dim)
	case Float64:
		accumulateRows(values.AsFloat64(), rows, s.Rows, s.Values.AsFloat64(), dim)
		accumulateRows(values.AsFloat64(), rows, other.Rows, other.Values.AsFloat64(), dim)
	default:
		panic(fmt.Sprintf("sparse rows: unsupported dtype %s", values.DType()))
	}

	return &SparseRows{Rows: rows, Values: values, DenseShape: s.DenseShape.Clone()}
}

// mergeRows merges two sorted duplicate-free row lists.
func mergeRows(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// accumulateRows adds src (rows srcRows) into dst (rows dstRows, a superset).
func accumulateRows[F float32 | float64](dst []F, dstRows, srcRows []int, src []F, dim int) {
	k := 0
	for n, row := range srcRows {
		for dstRows[k] != row {
			k++
		}
		acc := dst[k*dim : (k+1)*dim]
		for j, v := range src[n*dim : (n+1)*dim] {
			acc[j] += v
		}
	}
}
