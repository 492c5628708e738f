package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_VisitsEveryIndexOnce(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		Sequential(),
		{Enabled: true, NumWorkers: 3, MinChunkSize: 1},
	} {
		const n = 1000
		var hits [n]atomic.Int32
		For(n, func(i int) { hits[i].Add(1) }, cfg)
		for i := range hits {
			assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
		}
	}
}

func TestFor_Empty(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestForBatch(t *testing.T) {
	var sum atomic.Int64
	ForBatch(3, 4, func(b, c int) {
		assert.Less(t, b, 3)
		assert.Less(t, c, 4)
		sum.Add(int64(b*10 + c))
	}, Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1})
	// sum over b of 4*10*b + (0+1+2+3) = 40*(0+1+2) + 3*6
	assert.Equal(t, int64(138), sum.Load())
}

func TestDefaultConfig_OneWorkerPerCPU(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)
	assert.Equal(t, runtime.NumCPU() > 1, cfg.Enabled)
}
