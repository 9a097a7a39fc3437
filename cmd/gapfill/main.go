package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/gapfill/pkg/audio"
	_ "github.com/xaionaro-go/gapfill/pkg/audio/backends/pulseaudio"
	"github.com/xaionaro-go/gapfill/pkg/audio/resampler"
	"github.com/xaionaro-go/gapfill/pkg/gapfill"
	"github.com/xaionaro-go/gapfill/pkg/mixer"
	"github.com/xaionaro-go/gapfill/pkg/resynth"
	"github.com/xaionaro-go/gapfill/pkg/resynth/implementations/spectral"
	"github.com/xaionaro-go/gapfill/pkg/resynth/implementations/wavetable"
	"github.com/xaionaro-go/gapfill/pkg/signalio"
	"github.com/xaionaro-go/observability"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	configPath := pflag.String("config", "", "path to a YAML config file")
	mode := pflag.String("mode", "gapfill", "gapfill (fill silent spans) or overlay (layer the whole clip)")
	oracleName := pflag.String("oracle", "wavetable", "synthesizer: wavetable, spectral or dummy")
	record := pflag.Bool("record", false, "record from the default input device until interrupted (Ctrl+C) instead of reading <input-file>")
	inputFormatFlag := pflag.String("input-format", "s16le", "PCM format of raw input")
	inputRate := pflag.Uint32("input-rate", 16000, "sample rate of raw input or of the recording")
	inputChannels := pflag.Uint32("input-channels", 1, "channels of raw input or of the recording")
	inputPlanar := pflag.Bool("input-planar", false, "raw input is planar (not interleaved)")
	outputFormatFlag := pflag.String("output-format", "f32le", "PCM format of the output (WAV supports u8, s16le, s24le, s32le and f32le)")

	flagCfg := gapfill.DefaultConfig()
	normalizeFlag := pflag.String("normalize", flagCfg.Normalize.String(), "normalization of the filled signal: none, peak or clip")
	overlayNormalizeFlag := pflag.String("overlay-normalize", flagCfg.OverlayNormalize.String(), "normalization in the overlay mode: none, peak or clip")
	overrides := map[string]func(cfg *gapfill.Config) error{
		"sample-rate":                func(cfg *gapfill.Config) error { cfg.SampleRate = flagCfg.SampleRate; return nil },
		"energy-hop-size":            func(cfg *gapfill.Config) error { cfg.EnergyHopSize = flagCfg.EnergyHopSize; return nil },
		"energy-frame-length":        func(cfg *gapfill.Config) error { cfg.EnergyFrameLength = flagCfg.EnergyFrameLength; return nil },
		"energy-threshold":           func(cfg *gapfill.Config) error { cfg.EnergyThreshold = flagCfg.EnergyThreshold; return nil },
		"min-silence-duration":       func(cfg *gapfill.Config) error { cfg.MinSilenceDurationSec = flagCfg.MinSilenceDurationSec; return nil },
		"synthesis-frame-hop":        func(cfg *gapfill.Config) error { cfg.SynthesisFrameHop = flagCfg.SynthesisFrameHop; return nil },
		"pitch-confidence-threshold": func(cfg *gapfill.Config) error { cfg.PitchConfidenceThreshold = flagCfg.PitchConfidenceThreshold; return nil },
		"fade-duration":              func(cfg *gapfill.Config) error { cfg.FadeDurationSec = flagCfg.FadeDurationSec; return nil },
		"timing-shift":               func(cfg *gapfill.Config) error { cfg.TimingShiftSec = flagCfg.TimingShiftSec; return nil },
		"concurrency":                func(cfg *gapfill.Config) error { cfg.Concurrency = flagCfg.Concurrency; return nil },
		"overlay-delay":              func(cfg *gapfill.Config) error { cfg.OverlayDelaySec = flagCfg.OverlayDelaySec; return nil },
		"overlay-auto-align":         func(cfg *gapfill.Config) error { cfg.OverlayAutoAlign = flagCfg.OverlayAutoAlign; return nil },
		"normalize": func(cfg *gapfill.Config) (err error) {
			cfg.Normalize, err = mixer.ParseNormalizeMode(*normalizeFlag)
			return
		},
		"overlay-normalize": func(cfg *gapfill.Config) (err error) {
			cfg.OverlayNormalize, err = mixer.ParseNormalizeMode(*overlayNormalizeFlag)
			return
		},
	}
	pflag.Uint32Var((*uint32)(&flagCfg.SampleRate), "sample-rate", uint32(flagCfg.SampleRate), "sample rate the input is converted to before processing")
	pflag.IntVar(&flagCfg.EnergyHopSize, "energy-hop-size", flagCfg.EnergyHopSize, "distance between energy frames in samples")
	pflag.IntVar(&flagCfg.EnergyFrameLength, "energy-frame-length", flagCfg.EnergyFrameLength, "length of an energy frame in samples (0 means the hop size)")
	pflag.Float64Var(&flagCfg.EnergyThreshold, "energy-threshold", flagCfg.EnergyThreshold, "RMS level below which a frame is silent")
	pflag.Float64Var(&flagCfg.MinSilenceDurationSec, "min-silence-duration", flagCfg.MinSilenceDurationSec, "minimal duration of a silent span in seconds")
	pflag.IntVar(&flagCfg.SynthesisFrameHop, "synthesis-frame-hop", flagCfg.SynthesisFrameHop, "frame granularity of the synthesizer in samples")
	pflag.Float64Var(&flagCfg.PitchConfidenceThreshold, "pitch-confidence-threshold", flagCfg.PitchConfidenceThreshold, "pitch confidence below which a frame is unvoiced")
	pflag.Float64Var(&flagCfg.FadeDurationSec, "fade-duration", flagCfg.FadeDurationSec, "fade in/out duration in seconds")
	pflag.Float64Var(&flagCfg.TimingShiftSec, "timing-shift", flagCfg.TimingShiftSec, "how much earlier the synthesized excerpt is placed, in seconds")
	pflag.IntVar(&flagCfg.Concurrency, "concurrency", flagCfg.Concurrency, "amount of spans synthesized in parallel")
	pflag.Float64Var(&flagCfg.OverlayDelaySec, "overlay-delay", flagCfg.OverlayDelaySec, "delay of the synthesized layer in the overlay mode, in seconds")
	pflag.BoolVar(&flagCfg.OverlayAutoAlign, "overlay-auto-align", flagCfg.OverlayAutoAlign, "measure the delay of the synthesized layer instead of using --overlay-delay")
	pflag.Parse()

	switch {
	case *record && pflag.NArg() != 1:
		panic(fmt.Errorf("expected exactly one argument with --record: <output-file>"))
	case !*record && pflag.NArg() != 2:
		panic(fmt.Errorf("expected exactly two arguments: <input-file> <output-file>"))
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := gapfill.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = gapfill.LoadConfig(*configPath)
		assertNoError(err)
	}
	pflag.Visit(func(f *pflag.Flag) {
		if override, ok := overrides[f.Name]; ok {
			assertNoError(override(&cfg))
		}
	})
	logger.Debugf(ctx, "config: %#+v", cfg)

	synthesizer, err := newSynthesizer(*oracleName)
	assertNoError(err)
	filler, err := gapfill.New(cfg, synthesizer)
	assertNoError(err)

	inputFormat, err := audio.ParsePCMFormat(*inputFormatFlag)
	assertNoError(err)
	outputFormat, err := audio.ParsePCMFormat(*outputFormatFlag)
	assertNoError(err)

	outputPath := pflag.Arg(pflag.NArg() - 1)
	var signal audio.Signal
	if *record {
		signal = recordSignal(ctx, audio.Channel(*inputChannels), audio.SampleRate(*inputRate), cfg.SampleRate)
		logger.Infof(ctx, "recorded %v of audio", signal.Duration())
	} else {
		inputPath := pflag.Arg(0)
		signal, err = signalio.ReadFile(inputPath, resampler.Format{
			Channels:   audio.Channel(*inputChannels),
			SampleRate: audio.SampleRate(*inputRate),
			PCMFormat:  inputFormat,
			Planar:     *inputPlanar,
		}, cfg.SampleRate)
		assertNoError(err)
		logger.Infof(ctx, "read %v of audio from '%s'", signal.Duration(), inputPath)
	}

	var result *gapfill.Result
	switch *mode {
	case "gapfill":
		result, err = filler.Fill(ctx, signal)
	case "overlay":
		result, err = filler.Overlay(ctx, signal)
	default:
		err = fmt.Errorf("unknown mode '%s'", *mode)
	}
	assertNoError(err)
	for _, span := range result.Spans {
		logger.Debugf(ctx, "span %v (samples [%d, %d)): %s", span.Span, span.StartSample, span.EndSample, span.Status)
	}
	if result.Err != nil {
		logger.Warnf(ctx, "some spans were not filled: %v", result.Err)
	}

	size, err := signalio.WriteFile(outputPath, result.Output, outputFormat)
	assertNoError(err)
	logger.Infof(ctx, "filled %d of %d spans; written %d bytes to '%s'", result.Count(gapfill.SpanStatusFilled), len(result.Spans), size, outputPath)
}

// recordSignal captures from the default input device until SIGINT.
func recordSignal(
	ctx context.Context,
	channels audio.Channel,
	sampleRate audio.SampleRate,
	outRate audio.SampleRate,
) audio.Signal {
	recorder, err := audio.NewRecorderAuto(ctx)
	assertNoError(err)
	defer func() {
		assertNoError(recorder.Close())
	}()

	recordCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	logger.Infof(ctx, "recording; press Ctrl+C to stop")
	s, err := signalio.Record(recordCtx, recorder, resampler.Format{
		Channels:   channels,
		SampleRate: sampleRate,
		PCMFormat:  audio.PCMFormatFloat32LE,
	}, outRate)
	assertNoError(err)
	return s
}

func newSynthesizer(name string) (resynth.Synthesizer, error) {
	switch name {
	case "wavetable":
		return wavetable.New(), nil
	case "spectral":
		return spectral.New(), nil
	case "dummy":
		return resynth.NewDummy(), nil
	default:
		return nil, fmt.Errorf("unknown synthesizer '%s'", name)
	}
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
