package pulseaudio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type RecordStream struct {
	*pulse.RecordStream
}

func newRecordStream(
	pulseStream *pulse.RecordStream,
) *RecordStream {
	return &RecordStream{
		RecordStream: pulseStream,
	}
}

// Close stops the recording; the client stays open until the recorder
// is closed.
func (stream *RecordStream) Close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	recordErr := stream.RecordStream.Error()
	stream.RecordStream.Stop()
	stream.RecordStream.Close()
	if recordErr != nil {
		return fmt.Errorf("an error occurred during recording: %w", recordErr)
	}
	return nil
}
