package silence

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contourOf(pattern string) []float64 {
	contour := make([]float64, len(pattern))
	for idx, c := range pattern {
		if c == '#' {
			contour[idx] = 0.1
		}
	}
	return contour
}

func TestSegmenter_Segment(t *testing.T) {
	// 16 frames per second (hop 1000 at 16kHz), so 0.2s is 3.2 frames.
	s, err := NewSegmenter(0.001, 0.2, 16000, 1000)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		pattern  string
		expected []Span
	}{
		{
			name:     "single_span",
			pattern:  "##....##",
			expected: []Span{{StartFrame: 2, EndFrame: 6}},
		},
		{
			name:     "too_short_is_discarded",
			pattern:  "##...##....#",
			expected: []Span{{StartFrame: 7, EndFrame: 11}},
		},
		{
			name:     "trailing_span_is_not_emitted",
			pattern:  "#....#........",
			expected: []Span{{StartFrame: 1, EndFrame: 5}},
		},
		{
			name:     "leading_span",
			pattern:  "....#",
			expected: []Span{{StartFrame: 0, EndFrame: 4}},
		},
		{
			name:     "everything_silent",
			pattern:  "..........",
			expected: nil,
		},
		{
			name:     "nothing_silent",
			pattern:  "##########",
			expected: nil,
		},
		{
			name:     "empty",
			pattern:  "",
			expected: nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			spans := s.Segment(contourOf(tc.pattern))
			require.Equal(t, tc.expected, spans, spew.Sdump(spans))
		})
	}
}

func TestSegmenter_StrictThreshold(t *testing.T) {
	s, err := NewSegmenter(0.5, 0, 16000, 512)
	require.NoError(t, err)

	spans := s.Segment([]float64{1, 0.5, 0.5, 1, 0.49, 1})
	assert.Equal(t, []Span{{StartFrame: 4, EndFrame: 5}}, spans)
}

func TestSegmenter_MinDurationIsInclusive(t *testing.T) {
	// exactly 0.2 seconds: 2 frames of 1600 samples at 16kHz
	s, err := NewSegmenter(0.001, 0.2, 16000, 1600)
	require.NoError(t, err)

	spans := s.Segment([]float64{1, 0, 0, 1})
	assert.Equal(t, []Span{{StartFrame: 1, EndFrame: 3}}, spans)
}

func TestSpan(t *testing.T) {
	span := Span{StartFrame: 10, EndFrame: 20}
	assert.Equal(t, 10, span.Len())
	assert.Equal(t, 5120, span.StartSample(512))
	assert.Equal(t, 10240, span.EndSample(512))
	assert.InDelta(t, 0.32, span.Seconds(512, 16000), 1e-9)
	assert.Equal(t, "[10, 20)", span.String())
}

func TestNewSegmenter_Invalid(t *testing.T) {
	_, err := NewSegmenter(0.001, 0.2, 0, 512)
	assert.Error(t, err)
	_, err = NewSegmenter(0.001, 0.2, 16000, 0)
	assert.Error(t, err)
	_, err = NewSegmenter(0.001, -1, 16000, 512)
	assert.Error(t, err)
}
