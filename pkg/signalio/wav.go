package signalio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/wav"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// DecodeWAV reads 8-bit, 16-bit or IEEE float WAV data.
func DecodeWAV(
	r io.Reader,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	w, err := wav.New(r)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to parse the WAV header: %w", err)
	}
	if w.NumChannels == 0 || w.SampleRate == 0 {
		return audio.Signal{}, fmt.Errorf("invalid WAV header: %d channels at %dHz", w.NumChannels, w.SampleRate)
	}

	// wav.Samples counts the samples of all channels
	raw, err := w.ReadSamples(w.Samples)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to read %d samples: %w", w.Samples, err)
	}

	// ReadFloats maps integer PCM to [0, 1], so the conversion to
	// [-1, 1] is done here
	var interleaved []float32
	switch raw := raw.(type) {
	case []uint8:
		interleaved = make([]float32, len(raw))
		for idx, v := range raw {
			interleaved[idx] = (float32(v) - 128) / 128
		}
	case []int16:
		interleaved = make([]float32, len(raw))
		for idx, v := range raw {
			interleaved[idx] = float32(v) / 32768
		}
	case []float32:
		interleaved = raw
	default:
		return audio.Signal{}, fmt.Errorf("unexpected sample type: %T", raw)
	}

	return fromInterleaved(interleaved, audio.Channel(w.NumChannels), audio.SampleRate(w.SampleRate), outRate)
}

// EncodeWAV writes the signal as a mono WAV in the given PCM format.
// Supported formats are u8, s16le, s24le, s32le and f32le; the undefined
// format means f32le.
//
// The headers are finalized by seeking back, so w must be seekable.
func EncodeWAV(
	w io.WriteSeeker,
	signal audio.Signal,
	format audio.PCMFormat,
) (_err error) {
	if format == audio.PCMFormatUndefined {
		format = audio.PCMFormatFloat32LE
	}
	bitDepth, wavFormat, err := wavLayout(format)
	if err != nil {
		return err
	}
	if uint64(len(signal.Samples))*uint64(bitDepth/8)+36 > math.MaxUint32 {
		return fmt.Errorf("the signal is too long for WAV: %d samples", len(signal.Samples))
	}

	data := make([]int, len(signal.Samples))
	word := make([]byte, 4)
	for idx, v := range signal.Samples {
		format.Encode(word, v)
		data[idx] = wavWord(word, bitDepth)
	}

	enc := gowav.NewEncoder(w, int(signal.SampleRate), bitDepth, 1, wavFormat)
	defer func() {
		if err := enc.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to finalize the WAV headers: %w", err)
		}
	}()
	err = enc.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  int(signal.SampleRate),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("unable to write the samples: %w", err)
	}
	return nil
}

func wavLayout(format audio.PCMFormat) (bitDepth int, wavFormat int, err error) {
	switch format {
	case audio.PCMFormatU8:
		return 8, wavFormatPCM, nil
	case audio.PCMFormatS16LE:
		return 16, wavFormatPCM, nil
	case audio.PCMFormatS24LE:
		return 24, wavFormatPCM, nil
	case audio.PCMFormatS32LE:
		return 32, wavFormatPCM, nil
	case audio.PCMFormatFloat32LE:
		return 32, wavFormatIEEEFloat, nil
	default:
		return 0, 0, fmt.Errorf("%v cannot be stored in WAV", format)
	}
}

// wavWord converts an encoded little-endian sample into the integer the
// encoder writes back. 32-bit words are passed bit by bit, so IEEE floats
// survive the trip.
func wavWord(p []byte, bitDepth int) int {
	switch bitDepth {
	case 8:
		return int(p[0])
	case 16:
		return int(int16(binary.LittleEndian.Uint16(p)))
	case 24:
		u := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
		return int(int32(u<<8) >> 8)
	default:
		return int(int32(binary.LittleEndian.Uint32(p)))
	}
}
