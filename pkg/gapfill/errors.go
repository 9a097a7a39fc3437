package gapfill

import (
	"errors"

	"github.com/xaionaro-go/gapfill/pkg/envelope"
	"github.com/xaionaro-go/gapfill/pkg/resynth"
)

var (
	// ErrInvalidInput is returned for signals that cannot be processed at
	// all; no output is produced.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientContext marks a span with less preceding audio than
	// its own length. The span is skipped.
	ErrInsufficientContext = errors.New("insufficient context")

	// ErrDegenerateSpan marks a span too short to be synthesized or
	// shaped. The span is skipped.
	ErrDegenerateSpan = resynth.ErrDegenerateSpan

	// ErrOracleFailure marks a span the synthesizer failed on. The span
	// is left unfilled.
	ErrOracleFailure = resynth.ErrOracleFailure
)

// SpanStatus is the outcome of processing a single span.
type SpanStatus string

const (
	SpanStatusFilled              = SpanStatus("filled")
	SpanStatusInsufficientContext = SpanStatus("skipped_insufficient_context")
	SpanStatusDegenerate          = SpanStatus("skipped_degenerate")
	SpanStatusOracleFailed        = SpanStatus("oracle_failed")
	SpanStatusFailed              = SpanStatus("failed")
)

func (s SpanStatus) String() string {
	return string(s)
}

func statusOf(err error) SpanStatus {
	switch {
	case err == nil:
		return SpanStatusFilled
	case errors.Is(err, ErrInsufficientContext):
		return SpanStatusInsufficientContext
	case errors.Is(err, ErrDegenerateSpan), errors.Is(err, envelope.ErrTooShort):
		return SpanStatusDegenerate
	case errors.Is(err, ErrOracleFailure):
		return SpanStatusOracleFailed
	default:
		return SpanStatusFailed
	}
}
