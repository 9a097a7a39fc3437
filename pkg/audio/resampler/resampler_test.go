package resampler

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

func TestResampler(t *testing.T) {
	t.Run("Identity_S16LE_Mono_44100", func(t *testing.T) {
		format := Format{
			Channels:   1,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatS16LE,
		}
		// S16 is 2 bytes per sample. 100 samples = 200 bytes.
		data := make([]byte, 200)
		for i := 0; i < 100; i++ {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(i*100))
		}

		signal, err := ToSignal(format, data, 44100)
		require.NoError(t, err)
		require.Equal(t, 100, signal.Len())

		out, err := Encode(signal.Samples, format)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("Conversion_U8_to_Float64", func(t *testing.T) {
		format := Format{
			Channels:   1,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		// 128 in U8 is approx 0.0 in float
		samples, err := Decode(format, []byte{0, 128, 255})
		require.NoError(t, err)
		require.Len(t, samples, 3)

		assert.InDelta(t, -1.0, samples[0], 0.01)
		assert.InDelta(t, 0.0, samples[1], 0.01)
		assert.InDelta(t, 1.0, samples[2], 0.01)
	})

	t.Run("Resampling_44100_to_22050", func(t *testing.T) {
		samples := make([]float64, 100)
		for i := range samples {
			samples[i] = float64(i)
		}

		out, err := Resample(samples, 44100, 22050)
		require.NoError(t, err)
		assert.Len(t, out, 50)
		// Basic check: should take roughly every second sample
		assert.Equal(t, samples[0], out[0])
		assert.Equal(t, samples[2], out[1])
	})

	t.Run("Resampling_8000_to_16000", func(t *testing.T) {
		samples := []float64{1, 2, 3, 4}

		out, err := Resample(samples, 8000, 16000)
		require.NoError(t, err)
		assert.Len(t, out, 7)
		assert.Equal(t, 1.0, out[0])
		assert.Equal(t, 4.0, out[len(out)-1])
	})

	t.Run("Channels_Mono_to_Stereo", func(t *testing.T) {
		format := Format{
			Channels:   2,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		data := []byte{10, 20, 30}
		samples, err := Decode(Format{Channels: 1, SampleRate: 44100, PCMFormat: audio.PCMFormatU8}, data)
		require.NoError(t, err)

		out, err := Encode(samples, format)
		require.NoError(t, err)
		assert.Equal(t, []byte{10, 10, 20, 20, 30, 30}, out)
	})

	t.Run("Channels_Stereo_to_Mono", func(t *testing.T) {
		format := Format{
			Channels:   2,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		samples, err := Decode(format, []byte{100, 200, 50, 150})
		require.NoError(t, err)
		require.Len(t, samples, 2)

		out, err := Encode(samples, Format{Channels: 1, SampleRate: 44100, PCMFormat: audio.PCMFormatU8})
		require.NoError(t, err)
		// (100+200)/2 = 150 -> approx (scaled back to U8)
		assert.Equal(t, byte(150), out[0])
		assert.Equal(t, byte(100), out[1]) // (50+150)/2 = 100
	})

	t.Run("Channels_Planar_Stereo_to_Mono", func(t *testing.T) {
		format := Format{
			Channels:   2,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
			Planar:     true,
		}
		samples, err := Decode(format, []byte{100, 50, 200, 150})
		require.NoError(t, err)

		out, err := Encode(samples, Format{Channels: 1, SampleRate: 44100, PCMFormat: audio.PCMFormatU8})
		require.NoError(t, err)
		assert.Equal(t, []byte{150, 100}, out)
	})

	t.Run("Downmix_Float32_Stereo", func(t *testing.T) {
		out, err := Downmix(2, []float32{0.5, -0.5, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0.5}, out)

		_, err = Downmix(2, []float32{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("Saturation_S16", func(t *testing.T) {
		format := Format{
			Channels:   1,
			SampleRate: 16000,
			PCMFormat:  audio.PCMFormatS16LE,
		}
		out, err := Encode([]float64{2, -2}, format)
		require.NoError(t, err)
		assert.Equal(t, int16(math.MaxInt16), int16(binary.LittleEndian.Uint16(out[0:])))
		assert.Equal(t, int16(math.MinInt16), int16(binary.LittleEndian.Uint16(out[2:])))
	})

	t.Run("Misaligned_Data", func(t *testing.T) {
		_, err := Decode(Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE}, []byte{1, 2, 3})
		assert.Error(t, err)
	})
}
