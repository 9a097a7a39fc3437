package spectral

import (
	"context"
	"fmt"
	"math"

	"github.com/brettbuddin/fourier"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/resynth"
)

const (
	// MaxWindowSize is the maximum number of samples used for FFT analysis.
	// 1024 provides a good balance between frequency resolution and performance.
	MaxWindowSize = 1024

	// MinRequiredSamples is the minimum number of context samples needed
	// to perform a meaningful spectral analysis.
	MinRequiredSamples = 4

	// SieveSensitivity factor determines how far a spectral peak must stand
	// above the average noise floor to be considered significant.
	// A value of 2.5 is chosen to filter out room noise and low-level artifacts.
	SieveSensitivity = 2.5

	// SpectrumNormalization scales the magnitudes from a two-sided forward FFT
	// to their real-world amplitudes for synthesis.
	SpectrumNormalization = 2.0
)

type Synthesizer struct{}

var _ resynth.Synthesizer = (*Synthesizer)(nil)

func New() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize continues the context past its end using a Spectral Sieve.
//
// The algorithm works as follows:
//
// 1. Windowing: It takes the last samples of the context, as many as the
// largest power of two not exceeding MaxWindowSize allows.
//
// 2. Spectral Sieve: It performs a Forward FFT and keeps only the local
// spectral peaks standing SieveSensitivity times above the mean magnitude.
// This isolates the tonal components of the signal from stochastic noise.
//
// 3. Confidence gate: peaks weaker than confidenceThreshold times the
// strongest peak are dropped as well, so a higher threshold keeps only
// the dominant partials.
//
// 4. Projection: the surviving partials are synthesized as sine waves that
// keep the phase and frequency of the peaks, starting right where the
// window ends.
//
// The result has the same length as samples.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	samples []float64,
	_ audio.SampleRate,
	frameHop int,
	confidenceThreshold float64,
) ([]float64, error) {
	if frameHop <= 0 {
		return nil, fmt.Errorf("frame hop must be positive: got %d", frameHop)
	}
	if len(samples) < MinRequiredSamples {
		return make([]float64, len(samples)), nil
	}

	n := largestPowerOfTwo(min(len(samples), MaxWindowSize))
	windowed := samples[len(samples)-n:]

	coeffs := make([]complex128, n)
	for i, v := range windowed {
		coeffs[i] = complex(v, 0)
	}
	if err := fourier.Forward(coeffs); err != nil {
		return nil, fmt.Errorf("unable to perform the forward FFT: %w", err)
	}

	peaks := sieve(coeffs, confidenceThreshold)
	logger.Debugf(ctx, "spectral peaks: %d", len(peaks))

	result := make([]float64, len(samples))
	invN := 1.0 / float64(n)
	for i := range result {
		t := float64(n + i)
		var sum float64
		for _, p := range peaks {
			phase := 2.0 * math.Pi * float64(p.idx) * t * invN
			sum += p.magnitude * SpectrumNormalization * invN * math.Cos(phase+p.phase)
		}
		result[i] = sum
	}
	return result, nil
}

type peak struct {
	idx       int
	magnitude float64
	phase     float64
}

func sieve(coeffs []complex128, confidenceThreshold float64) []peak {
	magnitudes := make([]float64, len(coeffs))
	var threshold float64
	for i, c := range coeffs {
		magnitudes[i] = math.Hypot(real(c), imag(c))
		threshold += magnitudes[i]
	}
	threshold = (threshold / float64(len(magnitudes))) * SieveSensitivity

	var (
		peaks     []peak
		strongest float64
	)
	for i := 1; i < len(coeffs)/2; i++ {
		if magnitudes[i] > threshold && magnitudes[i] > magnitudes[i-1] && magnitudes[i] > magnitudes[i+1] {
			peaks = append(peaks, peak{
				idx:       i,
				magnitude: magnitudes[i],
				phase:     math.Atan2(imag(coeffs[i]), real(coeffs[i])),
			})
			strongest = math.Max(strongest, magnitudes[i])
		}
	}

	gate := strongest * confidenceThreshold
	result := peaks[:0]
	for _, p := range peaks {
		if p.magnitude >= gate {
			result = append(result, p)
		}
	}
	return result
}

func largestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
