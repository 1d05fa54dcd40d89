package tensor

import (
	"fmt"

	ggtensor "gorgonia.org/tensor"
)

// FromDense adopts a float32 gorgonia tensor, e.g. a pretrained table loaded
// by gorgonia-based tooling. The data is copied.
func FromDense[B Backend](d ggtensor.Tensor, b B) (*Tensor[float32, B], error) {
	if d == nil {
		return nil, fmt.Errorf("from dense: tensor is nil")
	}
	if d.Dtype() != ggtensor.Float32 {
		return nil, fmt.Errorf("from dense: unsupported dtype %v (want float32)", d.Dtype())
	}

	var data []float32
	switch v := d.Data().(type) {
	case []float32:
		data = v
	case float32: // single-element tensors report a scalar
		data = []float32{v}
	default:
		return nil, fmt.Errorf("from dense: backing data is %T, not []float32", v)
	}

	shape := Shape(append([]int(nil), d.Shape()...))
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("from dense: non-contiguous tensor (%d elements backing shape %v)", len(data), shape)
	}

	return FromSlice(data, shape, b)
}

// ToDense exports a float32 tensor as a gorgonia Dense. The data is copied.
func ToDense[B Backend](t *Tensor[float32, B]) *ggtensor.Dense {
	backing := make([]float32, t.NumElements())
	copy(backing, t.Data())
	return ggtensor.New(ggtensor.WithShape(t.Shape()...), ggtensor.WithBacking(backing))
}
