package latency

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	ctx := context.Background()

	t.Run("delayed by 10", func(t *testing.T) {
		ref := make([]float64, 1000)
		ref[500] = 1.0

		comp := make([]float64, 1000)
		comp[510] = 1.0

		shift, err := Estimate(ctx, ref, comp, 44100, DefaultMinFreq, DefaultMaxFreq)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, shift.Samples, 0.5)
		assert.Greater(t, shift.Confidence, 0.4)
	})

	t.Run("ahead by 10", func(t *testing.T) {
		ref := make([]float64, 1000)
		ref[500] = 1.0

		comp := make([]float64, 1000)
		comp[490] = 1.0

		shift, err := Estimate(ctx, ref, comp, 44100, DefaultMinFreq, DefaultMaxFreq)
		require.NoError(t, err)
		assert.InDelta(t, -10.0, shift.Samples, 0.5)
		assert.Greater(t, shift.Confidence, 0.4)
	})

	t.Run("noise delayed by 87ms", func(t *testing.T) {
		const delay = 1392 // 0.087s at 16kHz
		r := rand.New(rand.NewSource(42))
		ref := make([]float64, 8000)
		for i := range ref {
			ref[i] = r.Float64()*2 - 1
		}
		comp := make([]float64, len(ref))
		copy(comp[delay:], ref)

		shift, err := Estimate(ctx, ref, comp, 16000, 0, 0)
		require.NoError(t, err)
		assert.InDelta(t, float64(delay), shift.Samples, 0.5)
		assert.Greater(t, shift.Confidence, 0.4)
	})

	t.Run("complex signal ahead by 5", func(t *testing.T) {
		ref := make([]float64, 2000)
		for i := range ref {
			ref[i] = math.Sin(float64(i) * 0.1)
		}
		comp := make([]float64, 2000)
		copy(comp, ref[5:])

		shift, err := Estimate(ctx, ref, comp, 44100, DefaultMinFreq, DefaultMaxFreq)
		require.NoError(t, err)
		assert.InDelta(t, -5.0, shift.Samples, 0.5)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Estimate(ctx, nil, []float64{1}, 16000, 0, 0)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Estimate(ctx, []float64{1}, []float64{1}, 16000, 0, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCrossCorrelate_Invalid(t *testing.T) {
	_, _, err := CrossCorrelate(make([]complex128, 4), make([]complex128, 4), 0, 0, 0)
	assert.Error(t, err)
	_, _, err = CrossCorrelate(make([]complex128, 4), make([]complex128, 8), 16000, 0, 0)
	assert.Error(t, err)
}

func TestParabolicOffset(t *testing.T) {
	assert.Zero(t, parabolicOffset(1, 2, 1))
	assert.InDelta(t, 0.5, parabolicOffset(0, 1, 1), 1e-12)
	assert.InDelta(t, -0.5, parabolicOffset(1, 1, 0), 1e-12)
	assert.Zero(t, parabolicOffset(1, 1, 1))
}

func TestBandBins(t *testing.T) {
	binMin, binMax := bandBins(1024, 16000, 0, 0)
	assert.Equal(t, 0, binMin)
	assert.Equal(t, 512, binMax)

	binMin, binMax = bandBins(1024, 16000, 100, 4000)
	assert.Equal(t, 6, binMin)
	assert.Equal(t, 256, binMax)

	_, binMax = bandBins(1024, 16000, 0, 12000)
	assert.Equal(t, 512, binMax)
}
