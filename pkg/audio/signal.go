package audio

import (
	"fmt"
	"math"
	"time"
)

// Signal is a mono sequence of samples at a known sample rate.
//
// Signals handed to the gap filler are treated as immutable: the
// filler always works on a copy.
type Signal struct {
	Samples    []float64
	SampleRate SampleRate
}

func NewSignal(sampleRate SampleRate, samples []float64) Signal {
	return Signal{
		Samples:    samples,
		SampleRate: sampleRate,
	}
}

func (s Signal) Len() int {
	return len(s.Samples)
}

func (s Signal) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// Clone returns a deep copy of the signal.
func (s Signal) Clone() Signal {
	samples := make([]float64, len(s.Samples))
	copy(samples, s.Samples)
	return Signal{
		Samples:    samples,
		SampleRate: s.SampleRate,
	}
}

// Validate returns an error if the signal cannot be processed at all.
func (s Signal) Validate() error {
	if s.SampleRate == 0 {
		return fmt.Errorf("sample rate is mandatory")
	}
	if len(s.Samples) == 0 {
		return fmt.Errorf("the signal is empty")
	}
	for idx, v := range s.Samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sample #%d is not a finite number: %v", idx, v)
		}
	}
	return nil
}

// Peak returns the maximal absolute sample value.
func (s Signal) Peak() float64 {
	return Peak(s.Samples)
}

func Peak(samples []float64) float64 {
	var peak float64
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
