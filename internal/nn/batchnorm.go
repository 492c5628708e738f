package nn

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/unet/internal/tensor"
)

// Default BatchNorm2D hyperparameters.
const (
	DefaultBatchNormEpsilon  = 1e-3
	DefaultBatchNormMomentum = 0.99
)

// BatchNorm2D normalizes each channel of a 4D image tensor.
//
//	y = (x - mean) / sqrt(var + eps) * gamma + beta
//
// In training mode mean and var are computed over the batch and spatial axes
// of the input, and the moving statistics are updated as
// moving = momentum*moving + (1-momentum)*batch. In evaluation mode the
// moving statistics are used, which makes the layer a fixed affine map.
type BatchNorm2D[B tensor.Backend] struct {
	channels int
	layout   tensor.Layout
	epsilon  float32
	momentum float32

	gamma *Parameter[B]
	beta  *Parameter[B]

	mu           sync.RWMutex // guards moving statistics
	movingMean   *Parameter[B]
	movingVar    *Parameter[B]
	training     atomic.Bool
	batchUpdates atomic.Int64

	backend B
}

// NewBatchNorm2D creates a batch normalization layer over channels.
// A non-positive epsilon or momentum selects the defaults.
func NewBatchNorm2D[B tensor.Backend](channels int, layout tensor.Layout, epsilon, momentum float32, backend B) *BatchNorm2D[B] {
	if channels <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid channels %d", channels))
	}
	if err := layout.Validate(); err != nil {
		panic(fmt.Sprintf("batchnorm: %v", err))
	}
	if epsilon <= 0 {
		epsilon = DefaultBatchNormEpsilon
	}
	if momentum <= 0 {
		momentum = DefaultBatchNormMomentum
	}

	shape := tensor.Shape{channels}
	return &BatchNorm2D[B]{
		channels:   channels,
		layout:     layout,
		epsilon:    epsilon,
		momentum:   momentum,
		gamma:      NewParameter("gamma", Ones(shape, backend)),
		beta:       NewParameter("beta", Zeros(shape, backend)),
		movingMean: NewState("moving_mean", Zeros(shape, backend)),
		movingVar:  NewState("moving_variance", Ones(shape, backend)),
		backend:    backend,
	}
}

// OutputShape returns in unchanged after checking the channel count.
func (bn *BatchNorm2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := bn.layout.Check(in); err != nil {
		return nil, fmt.Errorf("batchnorm: %w", err)
	}
	if ch := bn.layout.Channels(in); ch != bn.channels {
		return nil, fmt.Errorf("batchnorm: input channels %d != expected %d", ch, bn.channels)
	}
	return in.Clone(), nil
}

// Forward normalizes the input.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if _, err := bn.OutputShape(input.Shape()); err != nil {
		panic(err.Error())
	}

	bshape := channelShape(bn.layout, bn.channels)
	var mean, variance *tensor.Tensor[float32, B]
	if bn.training.Load() {
		mean, variance = bn.batchStats(input)
		bn.updateMoving(mean, variance)
	} else {
		bn.mu.RLock()
		mean = bn.movingMean.Tensor().Reshape(bshape...)
		variance = bn.movingVar.Tensor().Reshape(bshape...)
		bn.mu.RUnlock()
	}

	scale := variance.AddScalar(bn.epsilon).Rsqrt().Mul(bn.gamma.Tensor().Reshape(bshape...))
	return input.Sub(mean).Mul(scale).Add(bn.beta.Tensor().Reshape(bshape...))
}

// batchStats returns the per-channel mean and (biased) variance of x, both
// shaped for broadcasting against x.
func (bn *BatchNorm2D[B]) batchStats(x *tensor.Tensor[float32, B]) (mean, variance *tensor.Tensor[float32, B]) {
	h, w := bn.layout.SpatialAxes()
	reduce := func(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		return t.MeanDim(0, true).MeanDim(h, true).MeanDim(w, true)
	}

	mean = reduce(x)
	centered := x.Sub(mean)
	variance = reduce(centered.Mul(centered))
	return mean, variance
}

func (bn *BatchNorm2D[B]) updateMoving(mean, variance *tensor.Tensor[float32, B]) {
	bn.mu.Lock()
	defer bn.mu.Unlock()

	m := 1 - bn.momentum
	bm := mean.Data()
	bv := variance.Data()
	mm := bn.movingMean.Tensor().Data()
	mv := bn.movingVar.Tensor().Data()
	for c := range mm {
		mm[c] = bn.momentum*mm[c] + m*bm[c]
		mv[c] = bn.momentum*mv[c] + m*bv[c]
	}
	bn.batchUpdates.Add(1)
}

// SetTraining switches between batch statistics and moving statistics.
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training.Store(training)
}

// Training reports whether the layer uses batch statistics.
func (bn *BatchNorm2D[B]) Training() bool {
	return bn.training.Load()
}

// Updates returns how many training batches have updated the moving statistics.
func (bn *BatchNorm2D[B]) Updates() int64 {
	return bn.batchUpdates.Load()
}

// Parameters returns gamma, beta and the moving statistics.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta, bn.movingMean, bn.movingVar}
}

// String returns a string representation of the layer.
func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(channels=%d, axis=%d, eps=%g, momentum=%g)",
		bn.channels, bn.layout.ChannelAxis(), bn.epsilon, bn.momentum)
}
