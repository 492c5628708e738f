package nn

import (
	"github.com/born-ml/unet/internal/tensor"
)

// PaddingMode selects how convolutions pad their input.
type PaddingMode int

const (
	// Valid applies no padding.
	Valid PaddingMode = iota
	// Same pads so that out = ceil(in / stride). When the total padding is
	// odd the extra row/column goes to the bottom/right.
	Same
)

// String returns the mode name.
func (m PaddingMode) String() string {
	if m == Same {
		return "same"
	}
	return "valid"
}

// convPadding returns the padding for a forward convolution over an
// h x w input.
func (m PaddingMode) convPadding(h, w, kernel, stride int) tensor.Padding {
	if m != Same {
		return tensor.Padding{}
	}
	top, bottom := samePad(h, kernel, stride)
	left, right := samePad(w, kernel, stride)
	return tensor.Padding{Top: top, Bottom: bottom, Left: left, Right: right}
}

func samePad(in, kernel, stride int) (before, after int) {
	out := (in + stride - 1) / stride
	total := max((out-1)*stride+kernel-in, 0)
	return total / 2, total - total/2
}

// transposePadding returns the cropping for a transposed convolution.
// Same crops the full output down to in*stride.
func (m PaddingMode) transposePadding(kernel, stride int) tensor.Padding {
	if m != Same {
		return tensor.Padding{}
	}
	total := max(kernel-stride, 0)
	before, after := total/2, total-total/2
	return tensor.Padding{Top: before, Bottom: after, Left: before, Right: after}
}
