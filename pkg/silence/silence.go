package silence

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/gapfill/pkg/audio"
)

// Span is a half-open interval of energy frames [StartFrame, EndFrame)
// classified as silent.
type Span struct {
	StartFrame int
	EndFrame   int
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.StartFrame, s.EndFrame)
}

// Len returns the amount of frames in the span.
func (s Span) Len() int {
	return s.EndFrame - s.StartFrame
}

func (s Span) StartSample(hopSize int) int {
	return s.StartFrame * hopSize
}

func (s Span) EndSample(hopSize int) int {
	return s.EndFrame * hopSize
}

// Seconds returns the duration of the span.
func (s Span) Seconds(hopSize int, sampleRate audio.SampleRate) float64 {
	return float64(s.Len()*hopSize) / float64(sampleRate)
}

func (s Span) Duration(hopSize int, sampleRate audio.SampleRate) time.Duration {
	return time.Duration(s.Seconds(hopSize, sampleRate) * float64(time.Second))
}

type Segmenter struct {
	// Threshold is the energy value a frame has to be strictly below
	// to be considered silent.
	Threshold float64

	// MinDuration is the minimal duration of a span in seconds.
	MinDuration float64

	SampleRate audio.SampleRate
	HopSize    int
}

func NewSegmenter(
	threshold float64,
	minDuration float64,
	sampleRate audio.SampleRate,
	hopSize int,
) (*Segmenter, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive: got %d", hopSize)
	}
	if minDuration < 0 {
		return nil, fmt.Errorf("minimal duration must not be negative: got %v", minDuration)
	}
	return &Segmenter{
		Threshold:   threshold,
		MinDuration: minDuration,
		SampleRate:  sampleRate,
		HopSize:     hopSize,
	}, nil
}

// Segment merges contiguous silent frames of the contour into spans.
//
// A span is only emitted once a non-silent frame closes it, so silence
// running until the end of the contour never produces a span.
func (s *Segmenter) Segment(contour []float64) []Span {
	var spans []Span
	startIdx := -1
	for idx, energy := range contour {
		silent := energy < s.Threshold
		switch {
		case silent && startIdx < 0:
			startIdx = idx
		case !silent && startIdx >= 0:
			span := Span{StartFrame: startIdx, EndFrame: idx}
			if span.Seconds(s.HopSize, s.SampleRate) >= s.MinDuration {
				spans = append(spans, span)
			}
			startIdx = -1
		}
	}
	return spans
}
