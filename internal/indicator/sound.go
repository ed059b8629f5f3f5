package indicator

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/pulse"

	"github.com/Ander2716/rag-voice-client/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
	cueVolume     = 0.18
)

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

// cue pairs the synthesized fallback with the config field that overrides it.
type cue struct {
	pcm  []int16
	file func(config.IndicatorConfig) string
}

// Start rises, stop is a single low tone, an answer rises softly and a
// cancel falls.
var cues = map[cueKind]cue{
	cueStart: {
		pcm:  synthesizeCue([]toneSpec{tone(880, 70), tone(1175, 70)}),
		file: func(cfg config.IndicatorConfig) string { return cfg.SoundStartFile },
	},
	cueStop: {
		pcm:  synthesizeCue([]toneSpec{tone(620, 120)}),
		file: func(cfg config.IndicatorConfig) string { return cfg.SoundStopFile },
	},
	cueComplete: {
		pcm:  synthesizeCue([]toneSpec{tone(659, 60), tone(880, 60), tone(1319, 110)}),
		file: func(cfg config.IndicatorConfig) string { return cfg.SoundCompleteFile },
	},
	cueCancel: {
		pcm:  synthesizeCue([]toneSpec{tone(480, 75), tone(360, 90)}),
		file: func(cfg config.IndicatorConfig) string { return cfg.SoundCancelFile },
	},
}

func tone(hz float64, ms int) toneSpec {
	return toneSpec{frequencyHz: hz, duration: time.Duration(ms) * time.Millisecond, volume: cueVolume}
}

// emitCue plays the configured WAV for kind, falling back to the built-in tone
// when no file is set or it cannot be decoded.
func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	if path := cuePath(kind, cfg); path != "" {
		samples, rate, err := loadCueFile(path)
		if err == nil {
			return playSamples(samples, rate)
		}
	}

	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playSamples(samples, cueSampleRate)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	c, ok := cues[kind]
	if !ok {
		return ""
	}
	return expandUserPath(c.file(cfg))
}

func cueSamples(kind cueKind) []int16 {
	return cues[kind].pcm
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw[1:], "/"))
}

// loadCueFile decodes a PCM WAV file into mono s16 samples and its sample rate.
func loadCueFile(path string) ([]int16, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open cue file %q: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("cue file %q is not a PCM wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode cue file %q: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("cue file %q has no sample rate", path)
	}

	shift, err := bitDepthShift(int(decoder.BitDepth))
	if err != nil {
		return nil, 0, fmt.Errorf("cue file %q: %w", path, err)
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, 0, fmt.Errorf("cue file %q is empty", path)
	}
	samples := make([]int16, frames)
	for i := range samples {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = int16((sum / channels) >> shift)
	}
	return samples, buf.Format.SampleRate, nil
}

func bitDepthShift(depth int) (int, error) {
	switch depth {
	case 16:
		return 0, nil
	case 24:
		return 8, nil
	case 32:
		return 16, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", depth)
	}
}

func playSamples(samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return errors.New("no cue samples")
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("ragvoice"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("ragvoice cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gap := make([]int16, samplesForDuration(cueGap))

	var pcm []int16
	for i, part := range parts {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(part)...)
	}
	return pcm
}

// synthesizeTone renders a sine with a short linear attack and release.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range pcm {
		envelope := math.Min(1, float64(min(i, n-i-1))/float64(ramp))
		t := float64(i) / cueSampleRate
		sample := math.Sin(2 * math.Pi * spec.frequencyHz * t)
		pcm[i] = int16(math.Round(sample * spec.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
