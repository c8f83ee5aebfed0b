package fitcommon

import (
	"errors"
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-flute/dsp"
	"github.com/cwbudde/algo-flute/flute"
)

// RenderConfig describes one rendered note.
type RenderConfig struct {
	SampleRate   int
	Channels     int
	BlockSize    int
	Frequency    float64
	Amplitude    float64
	Duration     float64 // total seconds; ignored in auto-stop mode
	ReleaseAfter float64 // seconds before NoteOff

	// DecayDBFS enables auto-stop when it is finite: rendering ends once
	// DecayHoldBlocks consecutive blocks after the release fall below it.
	DecayDBFS       float64
	DecayHoldBlocks int
	MinDuration     float64
	MaxDuration     float64
}

// DefaultRenderConfig returns a two second mono note at 440 Hz.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate:      48000,
		Channels:        1,
		BlockSize:       128,
		Frequency:       440,
		Amplitude:       0.8,
		Duration:        2.0,
		ReleaseAfter:    1.5,
		DecayDBFS:       math.Inf(1),
		DecayHoldBlocks: 6,
		MinDuration:     0.5,
		MaxDuration:     20.0,
	}
}

// RenderStats summarizes a render.
type RenderStats struct {
	Frames      int
	ReleasedAt  int // frame of NoteOff, -1 if the note was never released
	AutoStopped bool
	PeakDBFS    float64
}

// RenderNote plays one note on inst and collects its output block by block.
// Each block is filled with TickFrames into channel 0, so every channel
// carries the same signal.
func RenderNote(inst flute.Instrument, cfg RenderConfig) (*dsp.Frames, RenderStats, error) {
	var stats RenderStats
	if inst == nil {
		return nil, stats, errors.New("nil instrument")
	}
	if cfg.SampleRate <= 0 {
		return nil, stats, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.BlockSize < 1 {
		cfg.BlockSize = 128
	}
	if cfg.DecayHoldBlocks < 1 {
		cfg.DecayHoldBlocks = 1
	}

	autoStop := !math.IsInf(cfg.DecayDBFS, 0) && !math.IsNaN(cfg.DecayDBFS)
	sr := float64(cfg.SampleRate)
	var totalFrames, minFrames int
	if autoStop {
		minFrames = int(sr * math.Max(cfg.MinDuration, 0))
		totalFrames = int(sr * cfg.MaxDuration)
		if totalFrames < minFrames {
			totalFrames = minFrames
		}
	} else {
		totalFrames = int(sr * cfg.Duration)
	}
	if totalFrames < 1 {
		return nil, stats, errors.New("duration too small")
	}
	releaseAt := int(sr * cfg.ReleaseAfter)
	if releaseAt < 0 {
		releaseAt = 0
	}
	threshold := dspcore.DBToLinear(cfg.DecayDBFS)

	out := &dsp.Frames{
		Data:     make([]float64, 0, totalFrames*cfg.Channels),
		Channels: cfg.Channels,
	}
	block := dsp.NewFrames(cfg.BlockSize, cfg.Channels)
	stats.ReleasedAt = -1
	belowCount := 0
	peak := 0.0

	inst.NoteOn(cfg.Frequency, cfg.Amplitude)
	rendered := 0
	for rendered < totalFrames {
		n := MinInt(cfg.BlockSize, totalFrames-rendered)
		if stats.ReleasedAt < 0 && rendered+n > releaseAt {
			// split so NoteOff lands on its exact frame
			if pre := releaseAt - rendered; pre > 0 {
				n = pre
			} else {
				inst.NoteOff(cfg.Amplitude)
				stats.ReleasedAt = rendered
			}
		}
		block.Data = block.Data[:n*cfg.Channels]
		if err := inst.TickFrames(block, 0); err != nil {
			return nil, stats, err
		}
		out.Data = append(out.Data, block.Data...)
		rendered += n

		blockRMS := rms(block.Data)
		for _, v := range block.Data {
			peak = math.Max(peak, math.Abs(v))
		}
		if autoStop && stats.ReleasedAt >= 0 && rendered >= minFrames {
			if blockRMS < threshold {
				belowCount++
				if belowCount >= cfg.DecayHoldBlocks {
					stats.AutoStopped = true
					break
				}
			} else {
				belowCount = 0
			}
		}
	}
	stats.Frames = out.Len()
	stats.PeakDBFS = dspcore.LinearToDB(peak)
	return out, stats, nil
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// RenderParams builds a fresh voice from params and renders one note on it.
func RenderParams(params *flute.Params, cfg RenderConfig, opts ...flute.Option) (*dsp.Frames, RenderStats, error) {
	voice, err := flute.New(cfg.SampleRate, params, opts...)
	if err != nil {
		return nil, RenderStats{}, err
	}
	return RenderNote(voice, cfg)
}
