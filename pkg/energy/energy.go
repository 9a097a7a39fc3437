// Package energy computes short-time energy contours of a signal.
//
// Only complete frames are analyzed: samples that do not fill a whole
// frame at the end of the signal are dropped, so a signal of N samples
// analyzed with frameLength == hopSize yields floor(N/hopSize) values.
package energy

import (
	"fmt"
	"math"
)

// Profile returns the root-mean-square amplitude of every complete frame.
//
// Frame i covers samples [i*hopSize, i*hopSize+frameLength). An empty
// signal (or one shorter than a frame) produces an empty contour.
func Profile(
	samples []float64,
	frameLength int,
	hopSize int,
) ([]float64, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive: got %d", frameLength)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive: got %d", hopSize)
	}
	if len(samples) < frameLength {
		return []float64{}, nil
	}

	numFrames := (len(samples)-frameLength)/hopSize + 1
	contour := make([]float64, numFrames)
	for i := range contour {
		contour[i] = RMS(samples[i*hopSize : i*hopSize+frameLength])
	}
	return contour, nil
}

// RMS returns the root-mean-square amplitude of the samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range samples {
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}
