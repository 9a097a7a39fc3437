package resynth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

var (
	// ErrDegenerateSpan means the context quantizes to zero synthesis frames
	// or the synthesizer returned nothing.
	ErrDegenerateSpan = errors.New("degenerate span")

	// ErrOracleFailure is matched by every *OracleError.
	ErrOracleFailure = errors.New("synthesizer failure")
)

// OracleError wraps an error returned by a Synthesizer.
type OracleError struct {
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%v: %v", ErrOracleFailure, e.Err)
}

func (e *OracleError) Unwrap() []error {
	return []error{ErrOracleFailure, e.Err}
}

// Adapter prepares context buffers for a Synthesizer and calls it.
type Adapter struct {
	Synthesizer         Synthesizer
	FrameHop            int
	ConfidenceThreshold float64
}

func NewAdapter(
	synthesizer Synthesizer,
	frameHop int,
	confidenceThreshold float64,
) (*Adapter, error) {
	if synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is mandatory")
	}
	if frameHop <= 0 {
		return nil, fmt.Errorf("frame hop must be positive: got %d", frameHop)
	}
	return &Adapter{
		Synthesizer:         synthesizer,
		FrameHop:            frameHop,
		ConfidenceThreshold: confidenceThreshold,
	}, nil
}

// Quantize returns the longest prefix of samples that is a multiple of FrameHop.
func (a *Adapter) Quantize(samples []float64) []float64 {
	timeSteps := len(samples) / a.FrameHop
	return samples[:timeSteps*a.FrameHop]
}

// Resynthesize calls the synthesizer on the frame-aligned context and
// returns the excerpt. The context is not modified.
func (a *Adapter) Resynthesize(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) (_ret []float64, _err error) {
	request := a.Quantize(samples)
	if len(request) == 0 {
		return nil, fmt.Errorf("%w: %d samples is less than one synthesis frame of %d", ErrDegenerateSpan, len(samples), a.FrameHop)
	}

	// the synthesizer gets its own copy, so it could not modify the original signal
	request = append([]float64(nil), request...)

	logger.Tracef(ctx, "Synthesize: %d samples", len(request))
	startTS := time.Now()
	defer func() {
		logger.Tracef(ctx, "/Synthesize: %d samples in %v: %v", len(_ret), time.Since(startTS), _err)
	}()

	excerpt, err := a.Synthesizer.Synthesize(ctx, request, sampleRate, a.FrameHop, a.ConfidenceThreshold)
	if err != nil {
		return nil, &OracleError{Err: err}
	}
	if len(excerpt) == 0 {
		return nil, fmt.Errorf("%w: the synthesizer returned an empty excerpt", ErrDegenerateSpan)
	}
	return excerpt, nil
}
