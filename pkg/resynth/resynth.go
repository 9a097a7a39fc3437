package resynth

import (
	"context"

	"github.com/xaionaro-go/gapfill/pkg/audio"
)

// Synthesizer produces an excerpt that continues the pitch content of
// the given context buffer.
//
// Implementations must be deterministic for identical inputs and must
// not keep any state between calls: every call starts from scratch.
type Synthesizer interface {
	// Synthesize returns a mono excerpt of len(samples) samples. The
	// length of samples is a multiple of frameHop. Frames whose pitch
	// confidence is below confidenceThreshold are treated as unvoiced.
	Synthesize(
		ctx context.Context,
		samples []float64,
		sampleRate audio.SampleRate,
		frameHop int,
		confidenceThreshold float64,
	) ([]float64, error)
}

// Func adapts an ordinary function to the Synthesizer interface.
type Func func(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
	frameHop int,
	confidenceThreshold float64,
) ([]float64, error)

var _ Synthesizer = Func(nil)

func (fn Func) Synthesize(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
	frameHop int,
	confidenceThreshold float64,
) ([]float64, error) {
	return fn(ctx, samples, sampleRate, frameHop, confidenceThreshold)
}
