// Package planar converts PCM between the planar layout (all samples of
// channel 0, then all samples of channel 1, ...) and the interleaved one.
package planar

import (
	"fmt"

	"github.com/xaionaro-go/gapfill/pkg/audio"
)

// Interleave converts a planar buffer into an interleaved one.
func Interleave(
	data []byte,
	channels audio.Channel,
	sampleSize uint,
) ([]byte, error) {
	frameSize := int(channels) * int(sampleSize)
	if frameSize == 0 {
		return nil, fmt.Errorf("channels and sample size must be positive: %d, %d", channels, sampleSize)
	}
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("expected a length that is a multiple of %d, but received %d", frameSize, len(data))
	}

	result := make([]byte, len(data))
	samplesPerChan := len(data) / frameSize
	planeSize := samplesPerChan * int(sampleSize)
	for ch := 0; ch < int(channels); ch++ {
		plane := data[ch*planeSize : (ch+1)*planeSize]
		outOffset := ch * int(sampleSize)
		for samplePos := 0; samplePos < samplesPerChan; samplePos++ {
			copy(
				result[outOffset+samplePos*frameSize:][:sampleSize],
				plane[samplePos*int(sampleSize):][:sampleSize],
			)
		}
	}
	return result, nil
}
