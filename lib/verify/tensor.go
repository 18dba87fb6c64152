package verify

import "fmt"

// TensorDesc describes the shape of a packed tensor.
type TensorDesc struct {
	Lengths []int
	Strides []int
}

// NewTensorDesc creates a descriptor with packed (row-major) strides.
func NewTensorDesc(lengths ...int) TensorDesc {
	strides := make([]int, len(lengths))
	stride := 1
	for i := len(lengths) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= lengths[i]
	}
	return TensorDesc{Lengths: lengths, Strides: strides}
}

// Get4dLengths returns the lengths of a 4-D (NCHW) tensor.
func (d TensorDesc) Get4dLengths() (n, c, h, w int, err error) {
	if len(d.Lengths) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected a 4-D tensor, got %d dimensions", len(d.Lengths))
	}
	return d.Lengths[0], d.Lengths[1], d.Lengths[2], d.Lengths[3], nil
}

// ElementCount returns the number of elements, 0 for a descriptor without dimensions.
func (d TensorDesc) ElementCount() int {
	if len(d.Lengths) == 0 {
		return 0
	}
	count := 1
	for _, l := range d.Lengths {
		count *= l
	}
	return count
}

// Index returns the offset of the element at the given coordinates.
func (d TensorDesc) Index(coords ...int) (int, error) {
	if len(coords) != len(d.Lengths) {
		return 0, fmt.Errorf("expected %d coordinates, got %d", len(d.Lengths), len(coords))
	}
	offset := 0
	for i, c := range coords {
		if c < 0 || c >= d.Lengths[i] {
			return 0, fmt.Errorf("coordinate %d out of range [0, %d)", c, d.Lengths[i])
		}
		offset += c * d.Strides[i]
	}
	return offset, nil
}
