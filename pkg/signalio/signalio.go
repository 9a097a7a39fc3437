// Package signalio reads audio files into mono signals and writes signals back.
package signalio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/audio/resampler"
)

type Container int

const (
	ContainerUndefined = Container(iota)
	ContainerRaw
	ContainerWAV
	ContainerOgg
)

func (c Container) String() string {
	switch c {
	case ContainerUndefined:
		return "<undefined>"
	case ContainerRaw:
		return "raw"
	case ContainerWAV:
		return "wav"
	case ContainerOgg:
		return "ogg"
	default:
		return fmt.Sprintf("<unexpected_value_%d>", int(c))
	}
}

// ContainerFromPath guesses the container by the file extension;
// anything unknown is raw PCM.
func ContainerFromPath(path string) Container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return ContainerWAV
	case ".ogg", ".oga":
		return ContainerOgg
	default:
		return ContainerRaw
	}
}

// Decode reads a whole stream of the given container and converts it into
// a mono signal at outRate. rawFormat is used only for ContainerRaw.
func Decode(
	r io.Reader,
	container Container,
	rawFormat resampler.Format,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	switch container {
	case ContainerWAV:
		return DecodeWAV(r, outRate)
	case ContainerOgg:
		return DecodeOgg(r, outRate)
	case ContainerRaw:
		return DecodeRaw(r, rawFormat, outRate)
	default:
		return audio.Signal{}, fmt.Errorf("unsupported container: %v", container)
	}
}

// Encode writes the signal in the given container and PCM format.
// ContainerWAV requires w to be an io.WriteSeeker.
func Encode(
	w io.Writer,
	signal audio.Signal,
	container Container,
	pcmFormat audio.PCMFormat,
) error {
	switch container {
	case ContainerWAV:
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return fmt.Errorf("writing WAV requires a seekable writer, got %T", w)
		}
		return EncodeWAV(ws, signal, pcmFormat)
	case ContainerRaw:
		return EncodeRaw(w, signal, pcmFormat)
	default:
		return fmt.Errorf("writing %v is not supported", container)
	}
}

func ReadFile(
	path string,
	rawFormat resampler.Format,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()

	signal, err := Decode(f, ContainerFromPath(path), rawFormat, outRate)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to decode '%s': %w", path, err)
	}
	return signal, nil
}

// WriteFile writes the signal to path; the container is chosen by the
// extension. It returns the size of the written file.
func WriteFile(
	path string,
	signal audio.Signal,
	pcmFormat audio.PCMFormat,
) (_ int64, _err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return 0, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to close '%s': %w", path, err)
		}
	}()

	if err := Encode(f, signal, ContainerFromPath(path), pcmFormat); err != nil {
		return 0, fmt.Errorf("unable to encode '%s': %w", path, err)
	}
	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("unable to get the size of '%s': %w", path, err)
	}
	return size, nil
}

func DecodeRaw(
	r io.Reader,
	format resampler.Format,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to read: %w", err)
	}
	return resampler.ToSignal(format, data, outRate)
}

func EncodeRaw(
	w io.Writer,
	signal audio.Signal,
	pcmFormat audio.PCMFormat,
) error {
	data, err := resampler.Encode(signal.Samples, resampler.Format{
		Channels:   1,
		SampleRate: signal.SampleRate,
		PCMFormat:  pcmFormat,
	})
	if err != nil {
		return fmt.Errorf("unable to encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write: %w", err)
	}
	return nil
}

// fromInterleaved converts decoded interleaved float32 samples into a mono
// signal at outRate.
func fromInterleaved(
	interleaved []float32,
	channels audio.Channel,
	inRate audio.SampleRate,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	samples, err := resampler.Downmix(channels, interleaved)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to downmix: %w", err)
	}
	samples, err = resampler.Resample(samples, inRate, outRate)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to resample: %w", err)
	}
	return audio.NewSignal(outRate, samples), nil
}
