package gapfill

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xaionaro-go/gapfill/pkg/audio"
	"github.com/xaionaro-go/gapfill/pkg/mixer"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the gap filler. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// SampleRate the input signal is expected to have, in Hz.
	SampleRate audio.SampleRate `yaml:"sample_rate"`

	// EnergyHopSize is the distance between energy frames in samples.
	EnergyHopSize int `yaml:"energy_hop_size"`

	// EnergyFrameLength is the length of an energy frame in samples.
	// Zero means the same as EnergyHopSize.
	EnergyFrameLength int `yaml:"energy_frame_length"`

	// EnergyThreshold is the linear RMS level below which a frame is silent.
	EnergyThreshold float64 `yaml:"energy_threshold"`

	MinSilenceDurationSec float64 `yaml:"min_silence_duration_sec"`

	// SynthesisFrameHop is the frame granularity required by the synthesizer.
	SynthesisFrameHop int `yaml:"synthesis_frame_hop"`

	PitchConfidenceThreshold float64 `yaml:"pitch_confidence_threshold"`
	FadeDurationSec          float64 `yaml:"fade_duration_sec"`

	// TimingShiftSec compensates the latency of the synthesizer by
	// pulling the synthesized excerpt earlier.
	TimingShiftSec float64 `yaml:"timing_shift_sec"`

	// Normalize is applied to the output of Fill after all spans are mixed.
	Normalize mixer.NormalizeMode `yaml:"normalize"`

	// Concurrency is the amount of spans synthesized in parallel.
	Concurrency int `yaml:"concurrency"`

	// OverlayDelaySec delays the synthesized layer in Overlay.
	OverlayDelaySec float64 `yaml:"overlay_delay_sec"`

	// OverlayNormalize is applied to the output of Overlay.
	OverlayNormalize mixer.NormalizeMode `yaml:"overlay_normalize"`

	// OverlayAutoAlign measures the delay of the synthesized layer
	// instead of using OverlayDelaySec, if the measurement is confident.
	OverlayAutoAlign bool `yaml:"overlay_auto_align"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate:               16000,
		EnergyHopSize:            512,
		EnergyFrameLength:        0,
		EnergyThreshold:          0.001,
		MinSilenceDurationSec:    0.2,
		SynthesisFrameHop:        64,
		PitchConfidenceThreshold: 0.6,
		FadeDurationSec:          0.1,
		TimingShiftSec:           0.08,
		Normalize:                mixer.NormalizeNone,
		Concurrency:              1,
		OverlayDelaySec:          0.087,
		OverlayNormalize:         mixer.NormalizePeak,
		OverlayAutoAlign:         false,
	}
}

// FrameLength returns the effective energy frame length.
func (cfg Config) FrameLength() int {
	if cfg.EnergyFrameLength == 0 {
		return cfg.EnergyHopSize
	}
	return cfg.EnergyFrameLength
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.SampleRate == 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive"))
	}
	if cfg.EnergyHopSize <= 0 {
		errs = append(errs, fmt.Errorf("energy_hop_size must be positive, got %d", cfg.EnergyHopSize))
	}
	if cfg.EnergyFrameLength < 0 {
		errs = append(errs, fmt.Errorf("energy_frame_length must not be negative, got %d", cfg.EnergyFrameLength))
	}
	if cfg.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("energy_threshold must not be negative, got %v", cfg.EnergyThreshold))
	}
	if cfg.MinSilenceDurationSec < 0 {
		errs = append(errs, fmt.Errorf("min_silence_duration_sec must not be negative, got %v", cfg.MinSilenceDurationSec))
	}
	if cfg.SynthesisFrameHop <= 0 {
		errs = append(errs, fmt.Errorf("synthesis_frame_hop must be positive, got %d", cfg.SynthesisFrameHop))
	}
	if cfg.PitchConfidenceThreshold < 0 || cfg.PitchConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("pitch_confidence_threshold must be within [0, 1], got %v", cfg.PitchConfidenceThreshold))
	}
	if cfg.FadeDurationSec < 0 {
		errs = append(errs, fmt.Errorf("fade_duration_sec must not be negative, got %v", cfg.FadeDurationSec))
	}
	if cfg.TimingShiftSec < 0 {
		errs = append(errs, fmt.Errorf("timing_shift_sec must not be negative, got %v", cfg.TimingShiftSec))
	}
	if !cfg.Normalize.IsValid() {
		errs = append(errs, fmt.Errorf("normalize %q is invalid; valid values: none, peak, clip", cfg.Normalize))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency))
	}
	if cfg.OverlayDelaySec < 0 {
		errs = append(errs, fmt.Errorf("overlay_delay_sec must not be negative, got %v", cfg.OverlayDelaySec))
	}
	if !cfg.OverlayNormalize.IsValid() {
		errs = append(errs, fmt.Errorf("overlay_normalize %q is invalid; valid values: none, peak, clip", cfg.OverlayNormalize))
	}
	return errors.Join(errs...)
}

// LoadConfig reads the YAML configuration file at path on top of
// DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open config %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadConfigFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("unable to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromReader decodes a YAML config from r on top of
// DefaultConfig; unknown keys are rejected.
func LoadConfigFromReader(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unable to decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
