package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-flute/flute"
)

// File is the JSON schema for flute presets. Absent fields keep the
// defaults of flute.NewDefaultParams.
type File struct {
	JetReflection    *float64  `json:"jet_reflection,omitempty"`
	EndReflection    *float64  `json:"end_reflection,omitempty"`
	NoiseGain        *float64  `json:"noise_gain,omitempty"`
	VibratoGain      *float64  `json:"vibrato_gain,omitempty"`
	VibratoFrequency *float64  `json:"vibrato_frequency,omitempty"`
	OutputGain       *float64  `json:"output_gain,omitempty"`
	JetRatio         *float64  `json:"jet_ratio,omitempty"`
	Envelope         *Envelope `json:"envelope,omitempty"`
	LowestFrequency  *float64  `json:"lowest_frequency,omitempty"`
	NoiseSeed        *int64    `json:"noise_seed,omitempty"`
}

// Envelope is the breath envelope section of a preset file.
type Envelope struct {
	Decay       *float64 `json:"decay,omitempty"`
	Sustain     *float64 `json:"sustain,omitempty"`
	NoteOffRate *float64 `json:"note_off_rate,omitempty"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*flute.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := flute.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *flute.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.JetReflection != nil {
		if *f.JetReflection < -1 || *f.JetReflection > 1 {
			return fmt.Errorf("jet_reflection must be in [-1,1]")
		}
		dst.JetReflection = *f.JetReflection
	}
	if f.EndReflection != nil {
		if *f.EndReflection < -1 || *f.EndReflection > 1 {
			return fmt.Errorf("end_reflection must be in [-1,1]")
		}
		dst.EndReflection = *f.EndReflection
	}
	if f.NoiseGain != nil {
		if *f.NoiseGain < 0 {
			return fmt.Errorf("noise_gain must be >= 0")
		}
		dst.NoiseGain = *f.NoiseGain
	}
	if f.VibratoGain != nil {
		if *f.VibratoGain < 0 {
			return fmt.Errorf("vibrato_gain must be >= 0")
		}
		dst.VibratoGain = *f.VibratoGain
	}
	if f.VibratoFrequency != nil {
		if *f.VibratoFrequency < 0 {
			return fmt.Errorf("vibrato_frequency must be >= 0")
		}
		dst.VibratoFrequency = *f.VibratoFrequency
	}
	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	if f.JetRatio != nil {
		if *f.JetRatio <= 0 || *f.JetRatio >= 1 {
			return fmt.Errorf("jet_ratio must be in (0,1)")
		}
		dst.JetRatio = *f.JetRatio
	}
	if f.LowestFrequency != nil {
		if *f.LowestFrequency <= 0 {
			return fmt.Errorf("lowest_frequency must be > 0")
		}
		dst.LowestFrequency = *f.LowestFrequency
	}
	if f.NoiseSeed != nil {
		dst.NoiseSeed = *f.NoiseSeed
	}
	return applyEnvelope(dst, f.Envelope)
}

func applyEnvelope(dst *flute.Params, e *Envelope) error {
	if e == nil {
		return nil
	}
	times := []struct {
		name string
		v    *float64
		dst  *float64
	}{
		{"envelope.decay", e.Decay, &dst.DecayTime},
		{"envelope.note_off_rate", e.NoteOffRate, &dst.NoteOffRate},
	}
	for _, tm := range times {
		if tm.v == nil {
			continue
		}
		if *tm.v <= 0 {
			return fmt.Errorf("%s must be > 0", tm.name)
		}
		*tm.dst = *tm.v
	}
	if e.Sustain != nil {
		if *e.Sustain <= 0 || *e.Sustain > 1 {
			return fmt.Errorf("envelope.sustain must be in (0,1]")
		}
		dst.SustainLevel = *e.Sustain
	}
	return nil
}

// FromParams builds a fully populated preset file from params.
func FromParams(p *flute.Params) *File {
	if p == nil {
		p = flute.NewDefaultParams()
	}
	c := p.Clone()
	return &File{
		JetReflection:    &c.JetReflection,
		EndReflection:    &c.EndReflection,
		NoiseGain:        &c.NoiseGain,
		VibratoGain:      &c.VibratoGain,
		VibratoFrequency: &c.VibratoFrequency,
		OutputGain:       &c.OutputGain,
		JetRatio:         &c.JetRatio,
		Envelope: &Envelope{
			Decay:       &c.DecayTime,
			Sustain:     &c.SustainLevel,
			NoteOffRate: &c.NoteOffRate,
		},
		LowestFrequency: &c.LowestFrequency,
		NoiseSeed:       &c.NoiseSeed,
	}
}

// WriteJSON writes params as an indented preset file, creating parent
// directories as needed.
func WriteJSON(path string, p *flute.Params) error {
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
