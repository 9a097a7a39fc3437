// Package pulseaudio records from the default PulseAudio source.
package pulseaudio

import (
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

const (
	Priority = 100
)

func init() {
	audio.RegisterRecorderFactory(Priority, RecorderPCMPulseFactory{})
}

type RecorderPCMPulseFactory struct{}

func (RecorderPCMPulseFactory) NewRecorderPCM() (audio.RecorderPCM, error) {
	return NewRecorderPCM()
}
