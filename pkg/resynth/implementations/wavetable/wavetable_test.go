package wavetable

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gapfill/pkg/energy"
	"github.com/xaionaro-go/gapfill/pkg/pitch"
)

func tone(freq float64, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.3 * math.Sin(2*math.Pi*freq*float64(i)/16000)
	}
	return samples
}

func TestSynthesizer_FollowsThePitch(t *testing.T) {
	ctx := context.Background()
	s := New()

	excerpt, err := s.Synthesize(ctx, tone(220, 4800), 16000, 64, 0.6)
	require.NoError(t, err)
	require.Len(t, excerpt, 4800)

	assert.LessOrEqual(t, math.Abs(excerpt[0]), DefaultAmplitude+1e-9)
	middle := excerpt[1600:3200]
	assert.InDelta(t, DefaultAmplitude/math.Sqrt2, energy.RMS(middle), 0.01)

	tracker, err := pitch.NewTracker(16000)
	require.NoError(t, err)
	estimates, err := tracker.Track(excerpt, 64)
	require.NoError(t, err)
	assert.InEpsilon(t, 220, estimates[len(estimates)/2].Frequency, 0.03)
}

func TestSynthesizer_Unvoiced(t *testing.T) {
	ctx := context.Background()
	s := New()

	excerpt, err := s.Synthesize(ctx, make([]float64, 1280), 16000, 64, 0.6)
	require.NoError(t, err)
	require.Len(t, excerpt, 1280)
	for _, v := range excerpt {
		assert.Zero(t, v)
	}
}

func TestSynthesizer_ThresholdGatesEverything(t *testing.T) {
	ctx := context.Background()
	s := New()

	excerpt, err := s.Synthesize(ctx, tone(220, 1280), 16000, 64, 1.1)
	require.NoError(t, err)
	assert.Zero(t, energy.RMS(excerpt))
}

func TestSynthesizer_Deterministic(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Synthesize(ctx, tone(300, 3200), 16000, 64, 0.6)
	require.NoError(t, err)
	_, err = s.Synthesize(ctx, tone(150, 3200), 16000, 64, 0.6)
	require.NoError(t, err)
	second, err := s.Synthesize(ctx, tone(300, 3200), 16000, 64, 0.6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInterpolate(t *testing.T) {
	values := []float64{0, 10, 20}
	assert.Equal(t, 0.0, interpolate(values, -1))
	assert.Equal(t, 5.0, interpolate(values, 0.5))
	assert.Equal(t, 20.0, interpolate(values, 5))
	assert.Equal(t, 0.0, interpolate(nil, 1))
}
