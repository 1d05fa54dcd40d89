package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	return New[T, B](raw, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
// Only works with float types.
//
// Example:
//
//	w := tensor.Randn[float32](Shape{10000, 256}, backend)
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(rand.NormFloat64()) //nolint:gosec // G404: math/rand is appropriate for weight initialization
		}
	case []float64:
		for i := range data {
			data[i] = rand.NormFloat64() //nolint:gosec // G404: math/rand is appropriate for weight initialization
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}
