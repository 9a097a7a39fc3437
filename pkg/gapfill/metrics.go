package gapfill

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gap filler metrics.
const meterName = "github.com/xaionaro-go/gapfill"

// Metrics holds the OpenTelemetry instruments of a Filler. All fields are
// safe for concurrent use.
type Metrics struct {
	SpansDetected  metric.Int64Counter
	SpansFilled    metric.Int64Counter
	SpansSkipped   metric.Int64Counter
	OracleFailures metric.Int64Counter
	OracleDuration metric.Float64Histogram
}

// NewMetrics creates the instruments using mp; a nil mp means the global
// meter provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	var (
		m   Metrics
		err error
	)
	if m.SpansDetected, err = meter.Int64Counter("gapfill.spans.detected",
		metric.WithDescription("Silent spans found by the segmenter."),
		metric.WithUnit("{span}"),
	); err != nil {
		return nil, fmt.Errorf("unable to create the detected spans counter: %w", err)
	}
	if m.SpansFilled, err = meter.Int64Counter("gapfill.spans.filled",
		metric.WithDescription("Silent spans filled with synthesized audio."),
		metric.WithUnit("{span}"),
	); err != nil {
		return nil, fmt.Errorf("unable to create the filled spans counter: %w", err)
	}
	if m.SpansSkipped, err = meter.Int64Counter("gapfill.spans.skipped",
		metric.WithDescription("Silent spans left unfilled, by reason."),
		metric.WithUnit("{span}"),
	); err != nil {
		return nil, fmt.Errorf("unable to create the skipped spans counter: %w", err)
	}
	if m.OracleFailures, err = meter.Int64Counter("gapfill.oracle.failures",
		metric.WithDescription("Synthesizer calls that returned an error."),
	); err != nil {
		return nil, fmt.Errorf("unable to create the synthesizer failures counter: %w", err)
	}
	if m.OracleDuration, err = meter.Float64Histogram("gapfill.oracle.duration",
		metric.WithDescription("Duration of synthesizer calls."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("unable to create the synthesizer duration histogram: %w", err)
	}
	return &m, nil
}

func (m *Metrics) recordSpan(ctx context.Context, status SpanStatus) {
	switch status {
	case SpanStatusFilled:
		m.SpansFilled.Add(ctx, 1)
	case SpanStatusOracleFailed:
		m.OracleFailures.Add(ctx, 1)
		fallthrough
	default:
		m.SpansSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", status.String())))
	}
}

func (m *Metrics) recordOracleDuration(ctx context.Context, d time.Duration) {
	m.OracleDuration.Record(ctx, d.Seconds())
}
