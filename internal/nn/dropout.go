package nn

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/born-ml/unet/internal/tensor"
)

// Dropout zeroes a random fraction of its input during training and scales
// the rest by 1/(1-rate) so the expected activation is unchanged. In
// evaluation mode it is the identity.
type Dropout[B tensor.Backend] struct {
	elementwise[B]
	rate float32

	mu       sync.Mutex // guards rng
	rng      *rand.Rand
	training atomic.Bool
}

// NewDropout creates a dropout layer with the given drop probability in [0, 1).
// A nil rng uses a fixed seed.
func NewDropout[B tensor.Backend](rate float32, rng *rand.Rand) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %g out of range [0, 1)", rate))
	}
	return &Dropout[B]{rate: rate, rng: defaultRNG(rng)}
}

// Rate returns the drop probability.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}

// Forward applies dropout in training mode and returns the input otherwise.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training.Load() || d.rate == 0 {
		return input
	}

	keep := 1 / (1 - d.rate)
	mask := tensor.Zeros[float32](input.Shape(), input.Backend())
	data := mask.Data()

	d.mu.Lock()
	for i := range data {
		if d.rng.Float32() >= d.rate {
			data[i] = keep
		}
	}
	d.mu.Unlock()

	return input.Mul(mask)
}

// SetTraining enables or disables dropping.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training.Store(training)
}

// Training reports whether the layer drops activations.
func (d *Dropout[B]) Training() bool {
	return d.training.Load()
}

// String returns a string representation of the layer.
func (d *Dropout[B]) String() string {
	return fmt.Sprintf("Dropout(rate=%g)", d.rate)
}
