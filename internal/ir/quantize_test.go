package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizerRoundsHalfUp(t *testing.T) {
	q := NewQuantizer(1000)

	assert.Equal(t, Ticks(1500), q.Ticks(1.5))
	assert.Equal(t, Ticks(1), q.Ticks(0.0006))
	assert.Equal(t, Ticks(0), q.Ticks(0.0004))
	assert.Equal(t, Ticks(-1), q.Ticks(-0.0006))
	assert.Equal(t, 1.5, q.Time(1500))
}

func TestQuantizerDecimals(t *testing.T) {
	assert.Equal(t, 3, NewQuantizer(1000).Decimals())
	assert.Equal(t, 2, NewQuantizer(60).Decimals())
	assert.Equal(t, 0, NewQuantizer(1).Decimals())
}

func TestValidPrecision(t *testing.T) {
	assert.True(t, ValidPrecision(1000))
	assert.True(t, ValidPrecision(0.5))
	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.False(t, ValidPrecision(p), "%v", p)
	}
}
