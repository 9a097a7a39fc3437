package signalio

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/audio/resampler"
)

// Record captures audio from the recorder until ctx is done and converts
// the captured buffer into a mono signal at outRate.
func Record(
	ctx context.Context,
	recorder audio.RecorderPCM,
	format resampler.Format,
	outRate audio.SampleRate,
) (_ret audio.Signal, _err error) {
	logger.Tracef(ctx, "Record")
	defer func() { logger.Tracef(ctx, "/Record: %v", _err) }()

	if err := format.Validate(); err != nil {
		return audio.Signal{}, fmt.Errorf("invalid recording format: %w", err)
	}

	var buf lockedBuffer
	wc := datacounter.NewWriterCounter(&buf)
	stream, err := recorder.RecordPCM(ctx, format.SampleRate, format.Channels, format.PCMFormat, wc)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("unable to start recording: %w", err)
	}
	logger.Infof(ctx, "recording at %dHz, %d channel(s)", format.SampleRate, format.Channels)

	<-ctx.Done()
	if err := stream.Close(); err != nil {
		return audio.Signal{}, fmt.Errorf("unable to stop recording: %w", err)
	}
	logger.Debugf(ctx, "recorded %d bytes", wc.Count())

	data := buf.Bytes()
	// the capture may stop in the middle of a frame
	data = data[:len(data)-len(data)%int(format.FrameSize())]
	if len(data) == 0 {
		return audio.Signal{}, fmt.Errorf("nothing was recorded")
	}
	return resampler.ToSignal(format, data, outRate)
}

// lockedBuffer is written by the recording backend and read once the
// stream is closed.
type lockedBuffer struct {
	locker sync.Mutex
	buf    bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.locker.Lock()
	defer b.locker.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.locker.Lock()
	defer b.locker.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
