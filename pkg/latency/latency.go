// Package latency measures how late one signal is relative to another
// with GCC-PHAT: the cross-power spectrum is whitened to unit magnitude,
// so only the phase (hence the delay) decides the correlation peak and
// loudness or timbre differences do not.
package latency

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

const (
	// DefaultMinFreq and DefaultMaxFreq bound the band used for the
	// correlation, in Hz.
	DefaultMinFreq = 100
	DefaultMaxFreq = 12000
)

type Shift struct {
	// Samples is the delay of the comparison relative to the reference;
	// positive means the comparison lags behind the reference.
	Samples float64

	// Confidence score (0..1).
	Confidence float64
}

// Estimate returns the delay of comparison relative to reference.
func Estimate(
	ctx context.Context,
	reference []float64,
	comparison []float64,
	sampleRate audio.SampleRate,
	minFreq float64,
	maxFreq float64,
) (Shift, error) {
	if len(reference) == 0 || len(comparison) == 0 {
		return Shift{}, fmt.Errorf("both signals must be non-empty: %d, %d", len(reference), len(comparison))
	}
	select {
	case <-ctx.Done():
		return Shift{}, ctx.Err()
	default:
	}

	// zero padding up to n1+n2-1 keeps the correlation linear
	n1 := len(reference)
	n2 := len(comparison)
	n := 1
	for n < n1+n2-1 {
		n <<= 1
	}

	fref := make([]complex128, n)
	fcomp := make([]complex128, n)
	for j, v := range reference {
		fref[j] = complex(v, 0)
	}
	for j, v := range comparison {
		fcomp[j] = complex(v, 0)
	}

	shift, confidence, err := CrossCorrelate(fft.FFT(fref), fft.FFT(fcomp), float64(sampleRate), minFreq, maxFreq)
	if err != nil {
		return Shift{}, fmt.Errorf("unable to cross-correlate: %w", err)
	}
	return Shift{
		Samples:    shift,
		Confidence: confidence,
	}, nil
}

// CrossCorrelate returns the delay (in samples, sub-sample precise) of the
// comparison relative to the reference, and the confidence of it in [0, 1].
// The inputs are spectra of equal length; only bins within
// [minFreq, maxFreq] Hz take part (zero disables a bound).
func CrossCorrelate(
	refSpectrum []complex128,
	compSpectrum []complex128,
	sampleRate float64,
	minFreq float64,
	maxFreq float64,
) (float64, float64, error) {
	if sampleRate <= 0 {
		return 0, 0, fmt.Errorf("sampleRate must be positive: got %v", sampleRate)
	}
	if len(refSpectrum) != len(compSpectrum) {
		return 0, 0, fmt.Errorf("the spectra have different lengths: %d != %d", len(refSpectrum), len(compSpectrum))
	}
	n := len(refSpectrum)

	binMin, binMax := bandBins(n, sampleRate, minFreq, maxFreq)
	cross, activeBins := whitenedCrossSpectrum(refSpectrum, compSpectrum, binMin, binMax)
	if activeBins == 0 {
		return 0, 0, nil
	}

	correlation := fft.IFFT(cross)
	peakIdx, peak := argmaxAbs(correlation)

	shift := float64(peakIdx)
	if peakIdx > n/2 {
		shift -= float64(n)
	}
	if peakIdx > 0 && peakIdx < n-1 {
		shift += parabolicOffset(
			cmplx.Abs(correlation[peakIdx-1]),
			peak,
			cmplx.Abs(correlation[peakIdx+1]),
		)
	}

	// identical phases give activeBins unit bins, which IFFT turns
	// into a peak of activeBins/n
	confidence := math.Min(1, peak*float64(n)/float64(activeBins))
	return shift, confidence, nil
}

func bandBins(n int, sampleRate, minFreq, maxFreq float64) (int, int) {
	binMin, binMax := 0, n/2
	if minFreq > 0 {
		binMin = int(minFreq * float64(n) / sampleRate)
	}
	if maxFreq > 0 && maxFreq < sampleRate/2 {
		binMax = int(maxFreq * float64(n) / sampleRate)
	}
	return binMin, binMax
}

// whitenedCrossSpectrum returns comp*conj(ref) normalized to unit
// magnitude. Bins outside of the band, or more than 60dB below the
// strongest one, are zeroed.
func whitenedCrossSpectrum(
	refSpectrum []complex128,
	compSpectrum []complex128,
	binMin int,
	binMax int,
) ([]complex128, int) {
	n := len(refSpectrum)
	cross := make([]complex128, n)
	strongest := 0.0
	for i := range cross {
		cross[i] = compSpectrum[i] * cmplx.Conj(refSpectrum[i])
		strongest = math.Max(strongest, cmplx.Abs(cross[i]))
	}
	floor := math.Max(strongest*0.001, 1e-12)

	active := 0
	for i, v := range cross {
		freqBin := i
		if i > n/2 {
			freqBin = n - i
		}
		mag := cmplx.Abs(v)
		if freqBin < binMin || freqBin > binMax || mag <= floor {
			cross[i] = 0
			continue
		}
		cross[i] = v / complex(mag, 0)
		active++
	}
	return cross, active
}

func argmaxAbs(values []complex128) (int, float64) {
	bestIdx, best := 0, -1.0
	for i, v := range values {
		if abs := cmplx.Abs(v); abs > best {
			bestIdx, best = i, abs
		}
	}
	return bestIdx, best
}

// parabolicOffset is the vertex of the parabola through three equally
// spaced points, relative to the middle one.
func parabolicOffset(left, middle, right float64) float64 {
	denom := left - 2*middle + right
	if math.Abs(denom) <= 1e-12 {
		return 0
	}
	return (left - right) / (2 * denom)
}
