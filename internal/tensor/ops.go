package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(v T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, float64(v)), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(v T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, float64(v)), t.backend)
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Rsqrt(t.raw), t.backend)
}

// MeanDim averages along dim. With keepDim the reduced dimension stays as 1.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the tensor's dimensions.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{2, 3, 4}, backend, rng)
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along dim.
// Negative dim counts from the end (-1 = last dimension).
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	if len(tensors) == 1 {
		return tensors[0].Clone()
	}

	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	backend := tensors[0].backend
	return New[T, B](backend.Cat(raws, dim), backend)
}
