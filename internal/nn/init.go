package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/unet/internal/tensor"
)

// GlorotUniform initializes a weight tensor with values drawn from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
//
// Pass a seeded rng for reproducible weights.
func GlorotUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B, rng *rand.Rand) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform[float32](shape, -bound, bound, backend, rng)
}

// Zeros creates a float32 tensor filled with zeros, the default bias
// initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a float32 tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// defaultRNG returns rng, or a fixed-seed source when rng is nil.
func defaultRNG(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewSource(0)) //nolint:gosec // weight init, not security sensitive
	}
	return rng
}
