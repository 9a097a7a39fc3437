package gapfill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/envelope"
	"github.com/xaionaro-go/gapfill/pkg/latency"
	"github.com/xaionaro-go/gapfill/pkg/mixer"
)

// MinAlignConfidence is the lowest confidence of a measured delay that
// Overlay trusts more than Config.OverlayDelaySec.
const MinAlignConfidence = 0.5

// Overlay synthesizes a layer from the whole signal and mixes it on top
// of the signal, delayed by Config.OverlayDelaySec (or by the measured
// delay, see Config.OverlayAutoAlign). No silence detection is involved.
//
// The result contains a single report covering the whole signal.
func (f *Filler) Overlay(
	ctx context.Context,
	signal audio.Signal,
) (_ret *Result, _err error) {
	logger.Tracef(ctx, "Overlay")
	defer func() { logger.Tracef(ctx, "/Overlay: %v", _err) }()

	if err := f.validateInput(signal); err != nil {
		return nil, err
	}

	result := &Result{
		Output: signal.Clone(),
		Spans:  make([]SpanReport, 1),
	}
	report := &result.Spans[0]
	report.EndSample = signal.Len()

	layer, err := f.synthesizeLayer(ctx, signal)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	report.Status = statusOf(err)
	report.Err = err
	switch {
	case err == nil:
		report.Inserted = mixer.Overlay(result.Output.Samples, 0, layer, len(layer))
	case errors.Is(err, ErrOracleFailure):
		logger.Warnf(ctx, "unable to synthesize the layer: %v", err)
		result.Err = err
	default:
		logger.Debugf(ctx, "the layer is skipped: %v", err)
	}

	gain := mixer.Normalize(result.Output.Samples, f.Config.OverlayNormalize)
	logger.Debugf(ctx, "overlay status: %s; normalization gain: %v", report.Status, gain)
	return result, nil
}

func (f *Filler) synthesizeLayer(
	ctx context.Context,
	signal audio.Signal,
) ([]float64, error) {
	startTS := time.Now()
	excerpt, err := f.Adapter.Resynthesize(ctx, signal.Samples, signal.SampleRate)
	if err == nil || errors.Is(err, ErrOracleFailure) {
		f.Metrics.recordOracleDuration(ctx, time.Since(startTS))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to resynthesize: %w", err)
	}

	// positive shifts pull the layer earlier, negative ones delay it
	shift := -int(f.Config.OverlayDelaySec * float64(signal.SampleRate))
	if f.Config.OverlayAutoAlign {
		if measured, ok := f.measureDelay(ctx, signal, excerpt); ok {
			shift = measured
		}
	}

	layer := make([]float64, signal.Len())
	n := copy(layer, excerpt)
	if shift != 0 && (shift >= n || -shift >= len(layer)) {
		return nil, fmt.Errorf("%w: shift %d, length %d", envelope.ErrTooShort, shift, n)
	}
	if shift > 0 {
		envelope.Advance(layer, shift)
	} else {
		envelope.Delay(layer, -shift)
	}
	return layer, nil
}

// measureDelay returns how many samples the excerpt lags behind the
// signal, if the measurement is confident enough.
func (f *Filler) measureDelay(
	ctx context.Context,
	signal audio.Signal,
	excerpt []float64,
) (int, bool) {
	reference := f.Adapter.Quantize(signal.Samples)
	maxFreq := min(float64(latency.DefaultMaxFreq), float64(signal.SampleRate)/2)
	shift, err := latency.Estimate(ctx, reference, excerpt, signal.SampleRate, latency.DefaultMinFreq, maxFreq)
	if err != nil {
		logger.Warnf(ctx, "unable to measure the delay of the synthesized layer: %v", err)
		return 0, false
	}
	logger.Debugf(ctx, "measured delay of the synthesized layer: %.1f samples (confidence: %.2f)", shift.Samples, shift.Confidence)
	if shift.Confidence < MinAlignConfidence {
		return 0, false
	}
	return int(math.Round(shift.Samples)), true
}
