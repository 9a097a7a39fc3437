// Package envelope shapes a synthesized excerpt before it is mixed into
// a gap: the excerpt is trimmed to the gap length, faded in and out
// linearly, and shifted in time to compensate the synthesis latency.
package envelope

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/gapfill/pkg/audio"
)

// ErrTooShort is returned when an excerpt is too short to survive the
// timing shift.
var ErrTooShort = errors.New("the excerpt is too short for the timing shift")

type Shaper struct {
	// FadeDuration is the length of each of the linear fades in seconds.
	FadeDuration float64

	// TimingShift is in seconds. A positive value pulls the excerpt
	// earlier in time (left rotation with the tail zeroed), a negative
	// value delays it (right shift with the head zeroed).
	TimingShift float64

	SampleRate audio.SampleRate
}

func NewShaper(
	fadeDuration float64,
	timingShift float64,
	sampleRate audio.SampleRate,
) (*Shaper, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	if fadeDuration < 0 {
		return nil, fmt.Errorf("fade duration must not be negative: got %v", fadeDuration)
	}
	return &Shaper{
		FadeDuration: fadeDuration,
		TimingShift:  timingShift,
		SampleRate:   sampleRate,
	}, nil
}

// FadeSamples returns the fade length for an excerpt of length n.
func (s *Shaper) FadeSamples(n int) int {
	return min(int(s.FadeDuration*float64(s.SampleRate)), n/2)
}

// ShiftSamples returns the signed timing shift in samples.
func (s *Shaper) ShiftSamples() int {
	return int(s.TimingShift * float64(s.SampleRate))
}

// Shape returns a shaped copy of at most duration samples of the excerpt.
// The excerpt itself is left intact.
func (s *Shaper) Shape(
	excerpt []float64,
	duration int,
) ([]float64, error) {
	if duration < 0 {
		return nil, fmt.Errorf("duration must not be negative: got %d", duration)
	}
	result := make([]float64, min(len(excerpt), duration))
	copy(result, excerpt)

	ApplyFades(result, s.FadeSamples(len(result)))

	shift := s.ShiftSamples()
	if shift != 0 && abs(shift) >= len(result) {
		return nil, fmt.Errorf("%w: shift %d, length %d", ErrTooShort, shift, len(result))
	}
	if shift > 0 {
		Advance(result, shift)
	} else {
		Delay(result, -shift)
	}
	return result, nil
}

// ApplyFades multiplies the first fadeLen samples by a 0→1 ramp and the
// last fadeLen samples by a 1→0 ramp. Both ramps include their endpoints.
func ApplyFades(samples []float64, fadeLen int) {
	if fadeLen <= 0 {
		return
	}
	if fadeLen > len(samples)/2 {
		fadeLen = len(samples) / 2
	}
	tail := samples[len(samples)-fadeLen:]
	for i := 0; i < fadeLen; i++ {
		samples[i] *= linspace(0, 1, i, fadeLen)
		tail[i] *= linspace(1, 0, i, fadeLen)
	}
}

// linspace returns the i-th of n evenly spaced points from start to stop.
func linspace(start, stop float64, i, n int) float64 {
	if n <= 1 {
		return start
	}
	return start + (stop-start)*float64(i)/float64(n-1)
}

// Advance rotates the samples left by shift and zeroes the last shift samples.
func Advance(samples []float64, shift int) {
	if shift <= 0 {
		return
	}
	if shift >= len(samples) {
		clear(samples)
		return
	}
	copy(samples, samples[shift:])
	clear(samples[len(samples)-shift:])
}

// Delay moves the samples right by shift and zeroes the first shift samples.
func Delay(samples []float64, shift int) {
	if shift <= 0 {
		return
	}
	if shift >= len(samples) {
		clear(samples)
		return
	}
	copy(samples[shift:], samples)
	clear(samples[:shift])
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
