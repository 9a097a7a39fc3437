// Package wavetable implements a pitch-driven resynthesizer: it tracks the
// fundamental frequency of the context and plays it back through a sine
// wavetable oscillator.
package wavetable

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/pitch"
	"github.com/xaionaro-go/gapfill/pkg/resynth"
)

const (
	// DefaultTableSize is the amount of entries in the wavetable.
	DefaultTableSize = 2048

	// DefaultAmplitude is the constant amplitude of voiced frames.
	DefaultAmplitude = 0.1
)

type Synthesizer struct {
	Table     []float64
	Amplitude float64
}

var _ resynth.Synthesizer = (*Synthesizer)(nil)

func New() *Synthesizer {
	return &Synthesizer{
		Table:     SineTable(DefaultTableSize),
		Amplitude: DefaultAmplitude,
	}
}

// SineTable returns a single sine period sampled at n points.
func SineTable(n int) []float64 {
	table := make([]float64, n)
	for idx := range table {
		table[idx] = math.Sin(2 * math.Pi * float64(idx) / float64(n))
	}
	return table
}

// Synthesize tracks the pitch of samples at frameHop granularity and
// renders len(samples) samples of a wavetable oscillator following it.
//
// Frames with a confidence below confidenceThreshold are unvoiced: their
// frequency and amplitude are zero. Per-frame controls are linearly
// interpolated between frame centers.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
	frameHop int,
	confidenceThreshold float64,
) ([]float64, error) {
	if len(s.Table) == 0 {
		return nil, fmt.Errorf("the wavetable is empty")
	}
	if frameHop <= 0 {
		return nil, fmt.Errorf("frame hop must be positive: got %d", frameHop)
	}

	tracker, err := pitch.NewTracker(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a pitch tracker: %w", err)
	}
	estimates, err := tracker.Track(samples, frameHop)
	if err != nil {
		return nil, fmt.Errorf("unable to track the pitch: %w", err)
	}

	frequencies := make([]float64, len(estimates))
	amplitudes := make([]float64, len(estimates))
	voiced := 0
	for idx, e := range estimates {
		if e.Confidence < confidenceThreshold || e.Frequency <= 0 {
			continue
		}
		frequencies[idx] = e.Frequency
		amplitudes[idx] = s.Amplitude
		voiced++
	}
	logger.Debugf(ctx, "voiced frames: %d/%d", voiced, len(estimates))

	return s.render(frequencies, amplitudes, sampleRate, frameHop), nil
}

func (s *Synthesizer) render(
	frequencies []float64,
	amplitudes []float64,
	sampleRate audio.SampleRate,
	frameHop int,
) []float64 {
	result := make([]float64, len(frequencies)*frameHop)
	tableSize := float64(len(s.Table))
	var phase float64
	for idx := range result {
		pos := (float64(idx)+0.5)/float64(frameHop) - 0.5
		freq := interpolate(frequencies, pos)
		amp := interpolate(amplitudes, pos)

		tablePos := phase * tableSize
		i0 := int(tablePos)
		frac := tablePos - float64(i0)
		v0 := s.Table[i0%len(s.Table)]
		v1 := s.Table[(i0+1)%len(s.Table)]
		result[idx] = amp * (v0 + (v1-v0)*frac)

		phase += freq / float64(sampleRate)
		phase -= math.Floor(phase)
	}
	return result
}

// interpolate returns values linearly interpolated at the fractional
// index pos, clamped to the edges.
func interpolate(values []float64, pos float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if pos <= 0 {
		return values[0]
	}
	last := len(values) - 1
	if pos >= float64(last) {
		return values[last]
	}
	i0 := int(pos)
	frac := pos - float64(i0)
	return values[i0] + (values[i0+1]-values[i0])*frac
}
