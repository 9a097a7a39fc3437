package spectral

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSynthesize_ContinuesTonalSignal(t *testing.T) {
	// 500Hz at 16kHz is exactly bin 32 of a 1024-point FFT
	const (
		freq       = 500.0
		sampleRate = 16000.0
	)
	buf := make([]float64, 2048)
	for i := range buf {
		buf[i] = 0.4 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	excerpt, err := New().Synthesize(context.Background(), buf, 16000, 64, 0.6)
	require.NoError(t, err)
	require.Len(t, excerpt, len(buf))

	for i, v := range excerpt {
		expected := 0.4 * math.Sin(2*math.Pi*freq*float64(len(buf)+i)/sampleRate)
		require.InDelta(t, expected, v, 1e-6, "sample %d", i)
	}
}

func TestSynthesize_ThresholdDropsWeakPartials(t *testing.T) {
	const sampleRate = 16000.0
	buf := make([]float64, 1024)
	for i := range buf {
		x := float64(i) / sampleRate
		buf[i] = 0.5*math.Sin(2*math.Pi*500*x) + 0.1*math.Sin(2*math.Pi*1000*x)
	}

	strong, err := New().Synthesize(context.Background(), buf, 16000, 64, 0.5)
	require.NoError(t, err)
	both, err := New().Synthesize(context.Background(), buf, 16000, 64, 0.1)
	require.NoError(t, err)

	for i := range strong {
		x := float64(len(buf)+i) / sampleRate
		require.InDelta(t, 0.5*math.Sin(2*math.Pi*500*x), strong[i], 1e-6)
		require.InDelta(t, 0.5*math.Sin(2*math.Pi*500*x)+0.1*math.Sin(2*math.Pi*1000*x), both[i], 1e-6)
	}
}

func TestSynthesize_TooShort(t *testing.T) {
	excerpt, err := New().Synthesize(context.Background(), []float64{1, 2}, 16000, 1, 0.6)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, excerpt)
}

func BenchmarkSynthesize(b *testing.B) {
	buf := make([]float64, 4800)
	for i := range buf {
		buf[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 16000)
	}
	s := New()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Synthesize(ctx, buf, 16000, 64, 0.6)
	}
}
