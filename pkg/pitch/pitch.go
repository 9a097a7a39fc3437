// Package pitch estimates the fundamental frequency of a mono signal frame
// by frame.
//
// The estimator is a windowed normalized autocorrelation (computed
// through FFT) corrected by the autocorrelation of the window itself,
// which removes the bias of the taper towards short lags. The peak value
// of the corrected autocorrelation doubles as the voicing confidence.
package pitch

import (
	"fmt"
	"math"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

const (
	// DefaultWindowDuration is the analysis window length; it has to
	// contain at least two periods of the lowest detectable frequency.
	DefaultWindowDuration = 0.064

	DefaultMinFrequency = 60.0
	DefaultMaxFrequency = 1000.0

	// OctaveTolerance selects the shortest lag whose autocorrelation is
	// within this fraction of the best one, to avoid sub-octave errors.
	OctaveTolerance = 0.9

	// silenceRMS is the frame level below which a frame is unvoiced.
	silenceRMS = 1e-6
)

// Estimate is the pitch of a single frame.
type Estimate struct {
	// Frequency in Hz; zero if the frame has no detectable pitch.
	Frequency float64

	// Confidence in range [0, 1].
	Confidence float64
}

// Tracker is a single-use pitch tracker. It carries only the
// precalculated window, so separate Track calls never influence each other.
type Tracker struct {
	SampleRate   audio.SampleRate
	WindowSize   int
	MinFrequency float64
	MaxFrequency float64

	fftSize    int
	hann       []float64
	hannCorrel []float64
}

// NewTracker returns a tracker with the default analysis settings.
func NewTracker(sampleRate audio.SampleRate) (*Tracker, error) {
	windowSize := int(DefaultWindowDuration * float64(sampleRate))
	return NewTrackerWithParams(sampleRate, windowSize, DefaultMinFrequency, DefaultMaxFrequency)
}

func NewTrackerWithParams(
	sampleRate audio.SampleRate,
	windowSize int,
	minFrequency float64,
	maxFrequency float64,
) (*Tracker, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	if minFrequency <= 0 || maxFrequency <= minFrequency {
		return nil, fmt.Errorf("invalid frequency range: [%v, %v]", minFrequency, maxFrequency)
	}
	if maxFrequency > float64(sampleRate)/2 {
		maxFrequency = float64(sampleRate) / 2
	}
	maxLag := int(math.Ceil(float64(sampleRate) / minFrequency))
	if windowSize < 2*maxLag {
		return nil, fmt.Errorf("window size %d is too short for %vHz: need at least %d samples", windowSize, minFrequency, 2*maxLag)
	}

	t := &Tracker{
		SampleRate:   sampleRate,
		WindowSize:   windowSize,
		MinFrequency: minFrequency,
		MaxFrequency: maxFrequency,
		fftSize:      nextPowerOfTwo(2 * windowSize),
		hann:         window.Hann(windowSize),
	}
	t.hannCorrel = t.autocorrelation(t.hann)
	return t, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// autocorrelation returns the (unnormalized) autocorrelation of x for
// lags [0, len(x)).
func (t *Tracker) autocorrelation(x []float64) []float64 {
	padded := make([]float64, t.fftSize)
	copy(padded, x)
	spectrum := fft.FFTReal(padded)
	for idx, c := range spectrum {
		spectrum[idx] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	timeDomain := fft.IFFT(spectrum)
	result := make([]float64, len(x))
	for idx := range result {
		result[idx] = real(timeDomain[idx])
	}
	return result
}

// Track returns one estimate per complete hop of the samples. The
// analysis window of frame i is centered at the middle of the hop
// [i*hop, (i+1)*hop); samples outside the signal are zeros.
func (t *Tracker) Track(samples []float64, hop int) ([]Estimate, error) {
	if hop <= 0 {
		return nil, fmt.Errorf("hop must be positive: got %d", hop)
	}
	frames := len(samples) / hop
	estimates := make([]Estimate, frames)
	frame := make([]float64, t.WindowSize)
	for idx := range estimates {
		center := idx*hop + hop/2
		t.extract(frame, samples, center-t.WindowSize/2)
		estimates[idx] = t.estimateFrame(frame)
	}
	smooth(estimates)
	return estimates, nil
}

func (t *Tracker) extract(frame []float64, samples []float64, start int) {
	clear(frame)
	for idx := range frame {
		pos := start + idx
		if pos < 0 || pos >= len(samples) {
			continue
		}
		frame[idx] = samples[pos]
	}
}

func (t *Tracker) estimateFrame(frame []float64) Estimate {
	var mean, energy float64
	for _, v := range frame {
		mean += v
	}
	mean /= float64(len(frame))
	for idx, v := range frame {
		v -= mean
		frame[idx] = v * t.hann[idx]
		energy += v * v
	}
	if math.Sqrt(energy/float64(len(frame))) < silenceRMS {
		return Estimate{}
	}

	correl := t.autocorrelation(frame)
	if correl[0] <= 0 {
		return Estimate{}
	}

	minLag := max(1, int(math.Floor(float64(t.SampleRate)/t.MaxFrequency)))
	maxLag := min(len(correl)-2, int(math.Ceil(float64(t.SampleRate)/t.MinFrequency)))
	normalized := make([]float64, maxLag+2)
	for lag := minLag - 1; lag <= maxLag+1; lag++ {
		normalized[lag] = (correl[lag] / correl[0]) / (t.hannCorrel[lag] / t.hannCorrel[0])
	}

	bestLag := -1
	for lag := minLag; lag <= maxLag; lag++ {
		if bestLag < 0 || normalized[lag] > normalized[bestLag] {
			bestLag = lag
		}
	}
	if bestLag < 0 || normalized[bestLag] <= 0 {
		return Estimate{}
	}
	for lag := minLag; lag < bestLag; lag++ {
		if normalized[lag] >= OctaveTolerance*normalized[bestLag] &&
			normalized[lag] >= normalized[lag-1] && normalized[lag] >= normalized[lag+1] {
			bestLag = lag
			break
		}
	}

	// parabolic refinement
	lag := float64(bestLag)
	y1, y2, y3 := normalized[bestLag-1], normalized[bestLag], normalized[bestLag+1]
	if denom := y1 - 2*y2 + y3; math.Abs(denom) > 1e-12 {
		lag += (y1 - y3) / (2 * denom)
	}

	return Estimate{
		Frequency:  float64(t.SampleRate) / lag,
		Confidence: math.Max(0, math.Min(1, y2)),
	}
}

// smooth replaces the frequency of every voiced frame surrounded by
// voiced frames with the median of the three, removing isolated octave jumps.
func smooth(estimates []Estimate) {
	if len(estimates) < 3 {
		return
	}
	orig := make([]float64, len(estimates))
	for idx, e := range estimates {
		orig[idx] = e.Frequency
	}
	var neighbours [3]float64
	for idx := 1; idx < len(estimates)-1; idx++ {
		if orig[idx-1] == 0 || orig[idx] == 0 || orig[idx+1] == 0 {
			continue
		}
		copy(neighbours[:], orig[idx-1:idx+2])
		sort.Float64s(neighbours[:])
		estimates[idx].Frequency = neighbours[1]
	}
}
