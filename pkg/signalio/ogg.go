package signalio

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

func DecodeOgg(
	r io.Reader,
	outRate audio.SampleRate,
) (audio.Signal, error) {
	interleaved, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to decode vorbis: %w", err)
	}
	return fromInterleaved(interleaved, audio.Channel(format.Channels), audio.SampleRate(format.SampleRate), outRate)
}
