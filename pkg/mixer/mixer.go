package mixer

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/gapfill/pkg/audio"
)

// Overlay adds excerpt to output starting at start, sample by sample.
//
// At most spanLen samples are added, and never past the end of output.
// It returns the amount of samples actually added. Nothing is clipped.
func Overlay(
	output []float64,
	start int,
	excerpt []float64,
	spanLen int,
) int {
	if start < 0 || start >= len(output) {
		return 0
	}
	n := min(len(excerpt), spanLen, len(output)-start)
	if n <= 0 {
		return 0
	}
	dst := output[start : start+n]
	for k, v := range excerpt[:n] {
		dst[k] += v
	}
	return n
}

// NormalizeMode defines the optional post-processing of a mixed signal.
type NormalizeMode string

const (
	// NormalizeNone leaves the samples untouched.
	NormalizeNone = NormalizeMode("none")

	// NormalizePeak always scales the signal so that its peak is 1.
	NormalizePeak = NormalizeMode("peak")

	// NormalizeClip scales the signal only if its peak exceeds 1.
	NormalizeClip = NormalizeMode("clip")
)

// normalizeEpsilon prevents division by zero on silent signals.
const normalizeEpsilon = 1e-8

func ParseNormalizeMode(s string) (NormalizeMode, error) {
	mode := NormalizeMode(strings.ToLower(strings.TrimSpace(s)))
	if mode == "" {
		return NormalizeNone, nil
	}
	if !mode.IsValid() {
		return "", fmt.Errorf("unknown normalization mode '%s'; valid values: none, peak, clip", s)
	}
	return mode, nil
}

func (m NormalizeMode) IsValid() bool {
	switch m {
	case NormalizeNone, NormalizePeak, NormalizeClip:
		return true
	}
	return false
}

func (m NormalizeMode) String() string {
	return string(m)
}

// Normalize scales the samples in place according to the mode and
// returns the applied gain.
func Normalize(samples []float64, mode NormalizeMode) float64 {
	var gain float64
	switch mode {
	case NormalizePeak:
		gain = 1 / (audio.Peak(samples) + normalizeEpsilon)
	case NormalizeClip:
		peak := audio.Peak(samples)
		if peak <= 1 {
			return 1
		}
		gain = 1 / peak
	default:
		return 1
	}
	for idx := range samples {
		samples[idx] *= gain
	}
	return gain
}
