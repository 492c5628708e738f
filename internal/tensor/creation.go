package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
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

// Randn creates a tensor with values from a standard normal distribution,
// drawn from rng with the Box-Muller transform.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	t := tensor.Randn[float32](Shape{100, 100}, backend, rng)
func Randn[T DType, B Backend](shape Shape, b B, rng *rand.Rand) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := 0; i < len(data); i += 2 {
		u1 := 1 - rng.Float64() // (0, 1]: keeps Log finite
		u2 := rng.Float64()
		r := math.Sqrt(-2.0 * math.Log(u1))
		data[i] = T(r * math.Cos(2.0*math.Pi*u2))
		if i+1 < len(data) {
			data[i+1] = T(r * math.Sin(2.0*math.Pi*u2))
		}
	}
	return t
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B, rng *rand.Rand) *Tensor[T, B] {
	return Uniform[T, B](shape, 0, 1, b, rng)
}

// Uniform creates a tensor with values uniformly distributed in [lo, hi).
func Uniform[T DType, B Backend](shape Shape, lo, hi float64, b B, rng *rand.Rand) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(lo + (hi-lo)*rng.Float64())
	}
	return t
}
