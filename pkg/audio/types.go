package audio

import (
	"fmt"
)

type SampleRate uint32

type Channel uint32

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS16BE
	PCMFormatS24LE
	PCMFormatS24BE
	PCMFormatS32LE
	PCMFormatS32BE
	PCMFormatS64LE
	PCMFormatS64BE
	PCMFormatFloat32LE
	PCMFormatFloat32BE
	PCMFormatFloat64LE
	PCMFormatFloat64BE
)

var pcmFormatNames = map[PCMFormat]string{
	PCMFormatU8:        "u8",
	PCMFormatS16LE:     "s16le",
	PCMFormatS16BE:     "s16be",
	PCMFormatS24LE:     "s24le",
	PCMFormatS24BE:     "s24be",
	PCMFormatS32LE:     "s32le",
	PCMFormatS32BE:     "s32be",
	PCMFormatS64LE:     "s64le",
	PCMFormatS64BE:     "s64be",
	PCMFormatFloat32LE: "f32le",
	PCMFormatFloat32BE: "f32be",
	PCMFormatFloat64LE: "f64le",
	PCMFormatFloat64BE: "f64be",
}

func (f PCMFormat) String() string {
	if name, ok := pcmFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown_PCM_format_%d", uint(f))
}

// ParsePCMFormat is the reverse of PCMFormat.String.
func ParsePCMFormat(s string) (PCMFormat, error) {
	for f, name := range pcmFormatNames {
		if name == s {
			return f, nil
		}
	}
	return PCMFormatUndefined, fmt.Errorf("unknown PCM format '%s'", s)
}

// Size returns the size of a single sample of a single channel in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE, PCMFormatS16BE:
		return 2
	case PCMFormatS24LE, PCMFormatS24BE:
		return 3
	case PCMFormatS32LE, PCMFormatS32BE, PCMFormatFloat32LE, PCMFormatFloat32BE:
		return 4
	case PCMFormatS64LE, PCMFormatS64BE, PCMFormatFloat64LE, PCMFormatFloat64BE:
		return 8
	default:
		return 0
	}
}
