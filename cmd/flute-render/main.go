package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cwbudde/algo-flute/analysis"
	"github.com/cwbudde/algo-flute/dsp"
	"github.com/cwbudde/algo-flute/flute"
	"github.com/cwbudde/algo-flute/internal/fitcommon"
	"github.com/cwbudde/algo-flute/preset"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	frequency := flag.Float64("frequency", 0, "Frequency in Hz (overrides -note when > 0)")
	boreLength := flag.Float64("bore-length", 0, "Open-open bore length in meters (overrides -note and -frequency when > 0)")
	speedOfSound := flag.Float64("speed-of-sound", analysis.SpeedOfSound, "Speed of sound in m/s for -bore-length")
	amplitude := flag.Float64("amplitude", 0.8, "Note amplitude (0-1)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.5, "Send NoteOff after this many seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS after release (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	channels := flag.Int("channels", 1, "Output channel count; every channel carries the voice")
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	jetName := flag.String("jet", "tanh", "Jet function: tanh, cubic or table")
	output := flag.String("output", "output.wav", "Output WAV file path")
	tracePath := flag.String("trace", "", "Optional CSV path for per-tick loop signals")
	flag.Parse()

	params := flute.NewDefaultParams()
	if *presetPath != "" {
		var err error
		params, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
	}

	freq := flute.MIDINoteToFrequency(*note)
	if *frequency > 0 {
		freq = *frequency
	}
	if *boreLength > 0 {
		f, err := analysis.BoreFrequency(*boreLength, *speedOfSound)
		if err != nil {
			die("Error computing bore frequency: %v", err)
		}
		freq = f
	}

	jet, err := flute.NewJetShaper(*jetName)
	if err != nil {
		die("Error: %v", err)
	}
	opts := []flute.Option{flute.WithJet(jet)}

	var trace *traceWriter
	if *tracePath != "" {
		trace, err = newTraceWriter(*tracePath)
		if err != nil {
			die("Error creating trace file: %v", err)
		}
		opts = append(opts, flute.WithObserver(trace))
	}

	voice, err := flute.New(*sampleRate, params, opts...)
	if err != nil {
		trace.Close()
		die("Error creating flute: %v", err)
	}

	cfg := fitcommon.DefaultRenderConfig()
	cfg.SampleRate = *sampleRate
	cfg.Channels = *channels
	cfg.Frequency = freq
	cfg.Amplitude = *amplitude
	cfg.Duration = *duration
	cfg.ReleaseAfter = *releaseAfter
	cfg.DecayDBFS = *decayDBFS
	cfg.DecayHoldBlocks = *decayHoldBlocks
	cfg.MinDuration = *minDuration
	cfg.MaxDuration = *maxDuration

	fmt.Printf("Rendering %.2f Hz, amplitude %.2f, jet %s at %d Hz x %d ch (preset: %s)...\n",
		freq, *amplitude, *jetName, *sampleRate, *channels, presetLabel(*presetPath))

	frames, stats, err := renderTraced(voice, cfg, trace)
	if err != nil {
		die("Error rendering: %v", err)
	}
	if trace != nil {
		fmt.Printf("Wrote trace %s (%d ticks)\n", *tracePath, trace.rows)
	}
	if stats.AutoStopped {
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", stats.Frames, float64(stats.Frames)/float64(*sampleRate), *decayDBFS)
	}

	if err := fitcommon.WriteFramesWAV(*output, frames, *sampleRate); err != nil {
		die("Error writing WAV file: %v", err)
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.1f dBFS)\n", *output, stats.Frames, stats.PeakDBFS)
}

// renderTraced renders the note and closes trace whether or not the render
// succeeds. A render error takes precedence over a trace error.
func renderTraced(inst flute.Instrument, cfg fitcommon.RenderConfig, trace *traceWriter) (*dsp.Frames, fitcommon.RenderStats, error) {
	frames, stats, err := fitcommon.RenderNote(inst, cfg)
	if cerr := trace.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("write trace: %w", cerr)
	}
	return frames, stats, err
}

func presetLabel(path string) string {
	if path == "" {
		return "defaults"
	}
	return filepath.Base(path)
}

// traceWriter streams tick traces as CSV rows.
type traceWriter struct {
	f      *os.File
	w      *csv.Writer
	rows   int
	row    []string
	closed bool
}

var traceHeader = []string{"tick", "breath", "reflection", "jet_in", "jet_out", "shaped", "output"}

func newTraceWriter(path string) (*traceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		f.Close()
		return nil, err
	}
	return &traceWriter{f: f, w: w, row: make([]string, len(traceHeader))}, nil
}

func (t *traceWriter) ObserveTick(tr flute.TickTrace) {
	t.row[0] = strconv.Itoa(t.rows)
	t.row[1] = formatTraceValue(tr.Breath)
	t.row[2] = formatTraceValue(tr.Reflection)
	t.row[3] = formatTraceValue(tr.JetIn)
	t.row[4] = formatTraceValue(tr.JetOut)
	t.row[5] = formatTraceValue(tr.Shaped)
	t.row[6] = formatTraceValue(tr.Output)
	// csv.Writer keeps the first error; Close reports it.
	_ = t.w.Write(t.row)
	t.rows++
}

// Close flushes and closes the trace file. It is safe on a nil writer and
// on repeated calls.
func (t *traceWriter) Close() error {
	if t == nil || t.closed {
		return nil
	}
	t.closed = true
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}

func formatTraceValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
