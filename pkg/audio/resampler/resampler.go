// Package resampler converts interleaved PCM of arbitrary layout into the
// mono float64 signal consumed by the gap filler, and back.
package resampler

import (
	"fmt"

	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/audio/planar"
)

const (
	distanceStep = 10000
)

type Format struct {
	Channels   audio.Channel
	SampleRate audio.SampleRate
	PCMFormat  audio.PCMFormat

	// Planar means the samples are grouped by channel instead of
	// being interleaved. Only Decode supports it.
	Planar bool
}

func (f Format) Validate() error {
	if f.Channels == 0 {
		return fmt.Errorf("channels must be greater than 0")
	}
	if f.SampleRate == 0 {
		return fmt.Errorf("sample rate is mandatory")
	}
	if f.PCMFormat.Size() == 0 {
		return fmt.Errorf("unsupported PCM format: %v", f.PCMFormat)
	}
	return nil
}

// FrameSize returns the size of one sample of all channels in bytes.
func (f Format) FrameSize() uint {
	return f.PCMFormat.Size() * uint(f.Channels)
}

// Decode converts PCM into mono samples by averaging the channels.
func Decode(
	format Format,
	data []byte,
) ([]float64, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input format %#+v: %w", format, err)
	}
	frameSize := int(format.FrameSize())
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("the data length (%d) is not a multiple of %d", len(data), frameSize)
	}
	sampleSize := int(format.PCMFormat.Size())
	if format.Planar {
		var err error
		data, err = planar.Interleave(data, format.Channels, format.PCMFormat.Size())
		if err != nil {
			return nil, fmt.Errorf("unable to interleave: %w", err)
		}
	}

	result := make([]float64, len(data)/frameSize)
	for idx := range result {
		frame := data[idx*frameSize:]
		var sum float64
		for channelIdx := 0; channelIdx < int(format.Channels); channelIdx++ {
			sum += format.PCMFormat.Decode(frame[channelIdx*sampleSize:])
		}
		result[idx] = sum / float64(format.Channels)
	}
	return result, nil
}

// Downmix averages interleaved float32 samples (as returned by most decoders)
// into mono float64 samples.
func Downmix(
	channels audio.Channel,
	interleaved []float32,
) ([]float64, error) {
	if channels == 0 {
		return nil, fmt.Errorf("channels must be greater than 0")
	}
	if len(interleaved)%int(channels) != 0 {
		return nil, fmt.Errorf("the amount of samples (%d) is not a multiple of %d", len(interleaved), channels)
	}
	result := make([]float64, len(interleaved)/int(channels))
	for idx := range result {
		var sum float64
		for channelIdx := 0; channelIdx < int(channels); channelIdx++ {
			sum += float64(interleaved[idx*int(channels)+channelIdx])
		}
		result[idx] = sum / float64(channels)
	}
	return result, nil
}

// Resample changes the sample rate of mono samples using
// sample-and-hold: input samples are skipped or repeated.
func Resample(
	samples []float64,
	inRate audio.SampleRate,
	outRate audio.SampleRate,
) ([]float64, error) {
	if inRate == 0 || outRate == 0 {
		return nil, fmt.Errorf("sample rates are mandatory: %d -> %d", inRate, outRate)
	}
	if inRate == outRate {
		result := make([]float64, len(samples))
		copy(result, samples)
		return result, nil
	}

	outDistanceStep := uint64(float64(distanceStep) * float64(inRate) / float64(outRate))
	if outDistanceStep == 0 {
		return nil, fmt.Errorf("the sample rate ratio %d/%d is too large", outRate, inRate)
	}

	result := make([]float64, 0, uint64(len(samples))*uint64(outRate)/uint64(inRate)+1)
	var inDistance, outDistance uint64
	for srcIdx := 0; srcIdx < len(samples); srcIdx++ {
		for outDistance <= inDistance {
			result = append(result, samples[srcIdx])
			outDistance += outDistanceStep
		}
		inDistance += distanceStep
	}
	return result, nil
}

// Encode converts mono samples into interleaved PCM, repeating the
// value for every channel of the format.
func Encode(
	samples []float64,
	format Format,
) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid output format %#+v: %w", format, err)
	}
	sampleSize := int(format.PCMFormat.Size())
	frameSize := int(format.FrameSize())
	result := make([]byte, len(samples)*frameSize)
	for idx, v := range samples {
		for channelIdx := 0; channelIdx < int(format.Channels); channelIdx++ {
			format.PCMFormat.Encode(result[idx*frameSize+channelIdx*sampleSize:], v)
		}
	}
	return result, nil
}

// ToSignal decodes PCM in the given format into a mono signal at outRate.
func ToSignal(
	format Format,
	data []byte,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	samples, err := Decode(format, data)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to decode: %w", err)
	}
	samples, err = Resample(samples, format.SampleRate, outRate)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to resample: %w", err)
	}
	return audio.NewSignal(outRate, samples), nil
}
