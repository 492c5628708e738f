package tensor

// Padding is the number of zero rows/columns added on each side of the two
// spatial dimensions before a convolution.
type Padding struct {
	Top, Bottom, Left, Right int
}

// Symmetric returns a Padding with p on every side.
func Symmetric(p int) Padding {
	return Padding{Top: p, Bottom: p, Left: p, Right: p}
}

// Backend defines the interface that compute backends implement.
// All 4D operations use the NCHW convention; layout conversion happens
// above the backend.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Rsqrt(x *RawTensor) *RawTensor // 1/sqrt(x)

	// Reductions.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Convolutions. Kernel layouts:
	//   Conv2D:          [C_out, C_in, K_h, K_w]
	//   ConvTranspose2D: [C_in, C_out, K_h, K_w]
	Conv2D(input, kernel *RawTensor, stride int, padding Padding) *RawTensor
	ConvTranspose2D(input, kernel *RawTensor, stride int, padding Padding) *RawTensor

	// Shape and manipulation.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
