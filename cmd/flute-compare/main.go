package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-flute/analysis"
	"github.com/cwbudde/algo-flute/flute"
	"github.com/cwbudde/algo-flute/internal/fitcommon"
	"github.com/cwbudde/algo-flute/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render candidate from the flute model")
	presetPath := flag.String("preset", "", "Preset JSON path for rendered candidate (defaults when empty)")
	jetName := flag.String("jet", "tanh", "Jet function for rendered candidate: tanh, cubic or table")
	note := flag.Int("note", 69, "MIDI note for rendered candidate")
	frequency := flag.Float64("frequency", 0, "Frequency in Hz for rendered candidate (overrides -note when > 0)")
	amplitude := flag.Float64("amplitude", 0.8, "Amplitude for rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	duration := flag.Float64("duration", 2.0, "Rendered candidate duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.5, "Note hold time before NoteOff for rendered candidate")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := loadMono(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		cand, err = loadMono(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		params := flute.NewDefaultParams()
		if *presetPath != "" {
			params, err = preset.LoadJSON(*presetPath)
			if err != nil {
				die("failed to load preset: %v", err)
			}
		}
		jet, err := flute.NewJetShaper(*jetName)
		if err != nil {
			die("%v", err)
		}
		cfg := fitcommon.DefaultRenderConfig()
		cfg.SampleRate = *sampleRate
		cfg.Frequency = flute.MIDINoteToFrequency(*note)
		if *frequency > 0 {
			cfg.Frequency = *frequency
		}
		cfg.Amplitude = *amplitude
		cfg.Duration = *duration
		cfg.ReleaseAfter = *releaseAfter

		frames, _, err := fitcommon.RenderParams(params, cfg, flute.WithJet(jet))
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		cand = fitcommon.Downmix(frames)
		if *writeCandidate != "" {
			if err := fitcommon.WriteFramesWAV(*writeCandidate, frames, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	printMetrics(metrics)
}

func loadMono(path string, sampleRate int) ([]float64, error) {
	x, sr, err := fitcommon.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	return fitcommon.ResampleIfNeeded(x, sr, sampleRate)
}

func printMetrics(m analysis.Metrics) {
	fmt.Printf("Reference frames: %d\n", m.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", m.CandidateFrames)
	fmt.Printf("Steady frames:    %d\n", m.SteadyFrames)
	fmt.Println()
	if m.PitchMeasured {
		fmt.Printf("Pitch:            ref=%.2f Hz  cand=%.2f Hz  (%+.1f cents)\n", m.ReferenceF0Hz, m.CandidateF0Hz, m.PitchCents)
	} else {
		fmt.Printf("Pitch:            not measured\n")
	}
	if m.EnvelopeMeasured {
		fmt.Printf("Envelope RMSE:    %.1f dB (lag %.1f ms)\n", m.EnvelopeRMSEDB, m.EnvelopeLagMS)
	} else {
		fmt.Printf("Envelope RMSE:    not measured\n")
	}
	if m.HarmonicsMeasured {
		fmt.Printf("Harmonic RMSE:    %.1f dB\n", m.HarmonicRMSEDB)
		fmt.Printf("  k   ref dB   cand dB\n")
		for k := range m.ReferenceHarmonicsDB {
			fmt.Printf("%3d  %7.1f  %8.1f\n", k+1, m.ReferenceHarmonicsDB[k], m.CandidateHarmonicsDB[k])
		}
	} else {
		fmt.Printf("Harmonic RMSE:    not measured\n")
	}
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Printf("Similarity:       %.2f%%\n", m.Similarity*100.0)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
