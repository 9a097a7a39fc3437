// Package gapfill restores silent regions of a recorded signal.
//
// A Filler scans the signal for silent spans, asks a synthesizer for an
// excerpt modeled on the audio immediately preceding every span, shapes
// it with fades and a timing shift, and adds it on top of the span. All
// samples outside of the spans are left untouched.
package gapfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/energy"
	"github.com/xaionaro-go/gapfill/pkg/envelope"
	"github.com/xaionaro-go/gapfill/pkg/mixer"
	"github.com/xaionaro-go/gapfill/pkg/resynth"
	"github.com/xaionaro-go/gapfill/pkg/silence"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

type Filler struct {
	Config    Config
	Segmenter *silence.Segmenter
	Adapter   *resynth.Adapter
	Shaper    *envelope.Shaper
	Metrics   *Metrics
}

type options struct {
	meterProvider metric.MeterProvider
}

type Option func(*options)

// WithMeterProvider makes the Filler report metrics to mp instead of the
// global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

func New(
	cfg Config,
	synthesizer resynth.Synthesizer,
	opts ...Option,
) (*Filler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	segmenter, err := silence.NewSegmenter(cfg.EnergyThreshold, cfg.MinSilenceDurationSec, cfg.SampleRate, cfg.EnergyHopSize)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the segmenter: %w", err)
	}
	adapter, err := resynth.NewAdapter(synthesizer, cfg.SynthesisFrameHop, cfg.PitchConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the resynthesis adapter: %w", err)
	}
	shaper, err := envelope.NewShaper(cfg.FadeDurationSec, cfg.TimingShiftSec, cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the shaper: %w", err)
	}
	metrics, err := NewMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize metrics: %w", err)
	}

	return &Filler{
		Config:    cfg,
		Segmenter: segmenter,
		Adapter:   adapter,
		Shaper:    shaper,
		Metrics:   metrics,
	}, nil
}

// SpanReport describes what happened to a single silent span.
type SpanReport struct {
	Span         silence.Span
	StartSample  int
	EndSample    int
	ContextStart int
	Status       SpanStatus

	// Inserted is the amount of samples added to the output.
	Inserted int

	Err error
}

type Result struct {
	Output audio.Signal
	Spans  []SpanReport

	// Err aggregates per-span synthesizer failures. They do not
	// invalidate Output: the failed spans are just left unfilled.
	Err error
}

// Count returns the amount of spans with the given status.
func (r *Result) Count(status SpanStatus) int {
	var count int
	for _, span := range r.Spans {
		if span.Status == status {
			count++
		}
	}
	return count
}

func (f *Filler) validateInput(signal audio.Signal) error {
	if err := signal.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if signal.SampleRate != f.Config.SampleRate {
		return fmt.Errorf("%w: the sample rate is %d, but %d is configured", ErrInvalidInput, signal.SampleRate, f.Config.SampleRate)
	}
	return nil
}

// DetectSpans returns the silent spans of the samples in ascending order.
func (f *Filler) DetectSpans(samples []float64) ([]silence.Span, error) {
	contour, err := energy.Profile(samples, f.Config.FrameLength(), f.Config.EnergyHopSize)
	if err != nil {
		return nil, fmt.Errorf("unable to calculate the energy contour: %w", err)
	}
	return f.Segmenter.Segment(contour), nil
}

// Fill returns a copy of the signal with every silent span overlaid by
// synthesized audio.
//
// Only an invalid input signal (or a cancelled context) makes Fill fail.
// Spans that could not be filled are reported in Result.Spans.
func (f *Filler) Fill(
	ctx context.Context,
	signal audio.Signal,
) (_ret *Result, _err error) {
	logger.Tracef(ctx, "Fill")
	defer func() { logger.Tracef(ctx, "/Fill: %v", _err) }()

	if err := f.validateInput(signal); err != nil {
		return nil, err
	}

	spans, err := f.DetectSpans(signal.Samples)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "found %d silent spans in %v of audio", len(spans), signal.Duration())
	f.Metrics.SpansDetected.Add(ctx, int64(len(spans)))

	reports := make([]SpanReport, len(spans))
	excerpts := make([][]float64, len(spans))
	if err := f.processSpans(ctx, signal.Samples, spans, reports, excerpts); err != nil {
		return nil, err
	}

	// the original is never mutated; spans are applied in ascending order
	// whatever order they were synthesized in
	result := &Result{
		Output: signal.Clone(),
		Spans:  reports,
	}
	var mErr *multierror.Error
	for idx := range reports {
		report := &reports[idx]
		if excerpts[idx] != nil {
			report.Inserted = mixer.Overlay(result.Output.Samples, report.StartSample, excerpts[idx], report.EndSample-report.StartSample)
		}
		if report.Status == SpanStatusOracleFailed {
			mErr = multierror.Append(mErr, fmt.Errorf("span %v: %w", report.Span, report.Err))
		}
		f.Metrics.recordSpan(ctx, report.Status)
	}
	result.Err = mErr.ErrorOrNil()

	gain := mixer.Normalize(result.Output.Samples, f.Config.Normalize)
	logger.Debugf(ctx, "filled %d of %d spans; normalization gain: %v", result.Count(SpanStatusFilled), len(spans), gain)
	return result, nil
}

func (f *Filler) processSpans(
	ctx context.Context,
	samples []float64,
	spans []silence.Span,
	reports []SpanReport,
	excerpts [][]float64,
) error {
	if f.Config.Concurrency <= 1 {
		for idx, span := range spans {
			if err := ctx.Err(); err != nil {
				return err
			}
			excerpts[idx], reports[idx] = f.processSpan(ctx, samples, span)
		}
		return ctx.Err()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.Config.Concurrency)
	for idx, span := range spans {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			// every goroutine writes only its own slots
			excerpts[idx], reports[idx] = f.processSpan(gCtx, samples, span)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processSpan synthesizes and shapes the excerpt for a single span.
// A nil excerpt means the span is left as is; the reason is in the report.
func (f *Filler) processSpan(
	ctx context.Context,
	samples []float64,
	span silence.Span,
) ([]float64, SpanReport) {
	hop := f.Config.EnergyHopSize
	report := SpanReport{
		Span:        span,
		StartSample: span.StartSample(hop),
		EndSample:   span.EndSample(hop),
	}
	duration := report.EndSample - report.StartSample
	report.ContextStart = max(0, report.StartSample-duration)

	shaped, err := f.synthesizeSpan(ctx, samples, report.StartSample, report.EndSample)
	report.Status = statusOf(err)
	report.Err = err
	switch report.Status {
	case SpanStatusFilled:
		logger.Tracef(ctx, "span %v: synthesized %d samples", span, len(shaped))
	case SpanStatusOracleFailed:
		logger.Warnf(ctx, "span %v: %v", span, err)
	default:
		logger.Debugf(ctx, "span %v skipped: %v", span, err)
	}
	return shaped, report
}

func (f *Filler) synthesizeSpan(
	ctx context.Context,
	samples []float64,
	start int,
	end int,
) ([]float64, error) {
	buffer, err := SelectContext(samples, start, end)
	if err != nil {
		return nil, err
	}

	startTS := time.Now()
	excerpt, err := f.Adapter.Resynthesize(ctx, buffer, f.Config.SampleRate)
	if err == nil || errors.Is(err, ErrOracleFailure) {
		f.Metrics.recordOracleDuration(ctx, time.Since(startTS))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to resynthesize: %w", err)
	}

	shaped, err := f.Shaper.Shape(excerpt, end-start)
	if err != nil {
		return nil, fmt.Errorf("unable to shape the excerpt: %w", err)
	}
	return shaped, nil
}
