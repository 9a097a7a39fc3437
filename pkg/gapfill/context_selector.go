package gapfill

import (
	"fmt"
)

// SelectContext returns the audio immediately preceding [start, end),
// exactly as long as the span itself.
//
// If there is not enough audio before start, ErrInsufficientContext is
// returned: the span is never filled partially.
func SelectContext(
	samples []float64,
	start int,
	end int,
) ([]float64, error) {
	if start < 0 || end < start || end > len(samples) {
		return nil, fmt.Errorf("invalid span [%d, %d) of a signal of %d samples", start, end, len(samples))
	}
	duration := end - start
	bufferStart := max(0, start-duration)
	buffer := samples[bufferStart:start]
	if len(buffer) < duration {
		return nil, fmt.Errorf("%w: %d samples available before sample %d, %d required", ErrInsufficientContext, len(buffer), start, duration)
	}
	return buffer, nil
}
