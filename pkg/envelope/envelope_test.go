package envelope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(n int, v float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = v
	}
	return samples
}

func TestShaper_Fades(t *testing.T) {
	// 10 samples of fade at 100Hz, no shift
	s, err := NewShaper(0.1, 0, 100)
	require.NoError(t, err)

	excerpt := constant(50, 0.5)
	shaped, err := s.Shape(excerpt, 50)
	require.NoError(t, err)
	require.Len(t, shaped, 50)

	fadeLen := s.FadeSamples(len(shaped))
	require.Equal(t, 10, fadeLen)
	for i := 0; i < fadeLen; i++ {
		assert.InDelta(t, 0.5*float64(i)/float64(fadeLen-1), shaped[i], 1e-6, "fade-in sample %d", i)
		assert.InDelta(t, 0.5*(1-float64(i)/float64(fadeLen-1)), shaped[len(shaped)-fadeLen+i], 1e-6, "fade-out sample %d", i)
	}
	for i := fadeLen; i < len(shaped)-fadeLen; i++ {
		assert.Equal(t, 0.5, shaped[i])
	}

	// the input is not modified
	assert.Equal(t, constant(50, 0.5), excerpt)
}

func TestShaper_FadeIsCappedByHalfLength(t *testing.T) {
	s, err := NewShaper(1, 0, 100)
	require.NoError(t, err)

	shaped, err := s.Shape(constant(9, 1), 9)
	require.NoError(t, err)
	assert.Equal(t, 4, s.FadeSamples(9))
	assert.Equal(t, 0.0, shaped[0])
	assert.Equal(t, 1.0, shaped[4])
	assert.Equal(t, 0.0, shaped[8])
}

func TestShaper_Truncates(t *testing.T) {
	s, err := NewShaper(0, 0, 100)
	require.NoError(t, err)

	shaped, err := s.Shape(constant(100, 1), 30)
	require.NoError(t, err)
	assert.Len(t, shaped, 30)

	// a shorter excerpt is taken as is
	shaped, err = s.Shape(constant(20, 1), 30)
	require.NoError(t, err)
	assert.Len(t, shaped, 20)
}

func TestShaper_TimingShift(t *testing.T) {
	const (
		sampleRate = 1000
		length     = 200
	)
	s, err := NewShaper(0.02, 0.03, sampleRate)
	require.NoError(t, err)
	shift := s.ShiftSamples()
	require.Equal(t, 30, shift)

	excerpt := make([]float64, length)
	for i := range excerpt {
		excerpt[i] = math.Sin(float64(i) * 0.3)
	}
	faded := make([]float64, length)
	copy(faded, excerpt)
	ApplyFades(faded, s.FadeSamples(length))

	shaped, err := s.Shape(excerpt, length)
	require.NoError(t, err)
	require.Len(t, shaped, length)
	for i := 0; i < length-shift; i++ {
		assert.Equal(t, faded[(i+shift)%length], shaped[i], "sample %d", i)
	}
	for i := length - shift; i < length; i++ {
		assert.Zero(t, shaped[i], "sample %d", i)
	}
}

func TestShaper_NegativeShiftDelays(t *testing.T) {
	s, err := NewShaper(0, -0.002, 1000)
	require.NoError(t, err)

	shaped, err := s.Shape([]float64{1, 2, 3, 4, 5}, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 2, 3}, shaped)
}

func TestShaper_TooShortForShift(t *testing.T) {
	s, err := NewShaper(0.1, 0.08, 16000)
	require.NoError(t, err)

	_, err = s.Shape(constant(1000, 1), 1000)
	require.ErrorIs(t, err, ErrTooShort)
}

func TestShaper_FadesOnlyAttenuate(t *testing.T) {
	s, err := NewShaper(0.1, 0.01, 1000)
	require.NoError(t, err)

	excerpt := make([]float64, 500)
	for i := range excerpt {
		excerpt[i] = math.Sin(float64(i)*0.05) * 0.7
	}
	shaped, err := s.Shape(excerpt, 500)
	require.NoError(t, err)
	for _, v := range shaped {
		assert.LessOrEqual(t, math.Abs(v), 0.7)
	}
}

func TestApplyFades_SingleSampleFade(t *testing.T) {
	samples := []float64{1, 1, 1}
	ApplyFades(samples, 1)
	assert.Equal(t, []float64{0, 1, 1}, samples)
}

func TestAdvanceDelay(t *testing.T) {
	samples := []float64{1, 2, 3, 4}
	Advance(samples, 1)
	assert.Equal(t, []float64{2, 3, 4, 0}, samples)

	Delay(samples, 2)
	assert.Equal(t, []float64{0, 0, 2, 3}, samples)

	Advance(samples, 10)
	assert.Equal(t, []float64{0, 0, 0, 0}, samples)
}

func TestNewShaper_Invalid(t *testing.T) {
	_, err := NewShaper(0.1, 0.08, 0)
	assert.Error(t, err)
	_, err = NewShaper(-0.1, 0.08, 16000)
	assert.Error(t, err)
}
