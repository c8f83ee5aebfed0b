package flute

// Params holds the configuration of a flute voice.
type Params struct {
	JetReflection    float64
	EndReflection    float64
	NoiseGain        float64
	VibratoGain      float64
	VibratoFrequency float64
	OutputGain       float64
	JetRatio         float64

	// Breath envelope. The attack rate comes from NoteOn's amplitude.
	// DecayTime is in seconds; SustainLevel is a fraction in (0, 1].
	DecayTime    float64
	SustainLevel float64
	// NoteOffRate is the per-sample release decrement used by NoteOff.
	NoteOffRate float64

	// LowestFrequency bounds SetFrequency and sizes the delay lines.
	LowestFrequency float64
	NoiseSeed       int64
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		JetReflection:    0.5,
		EndReflection:    0.5,
		NoiseGain:        0.15,
		VibratoGain:      0.05,
		VibratoFrequency: 5.925,
		OutputGain:       1.0,
		JetRatio:         0.32,
		DecayTime:        0.01,
		SustainLevel:     0.8,
		NoteOffRate:      0.005,
		LowestFrequency:  20.0,
		NoiseSeed:        1,
	}
}

// Clone returns a copy of p.
func (p *Params) Clone() *Params {
	if p == nil {
		return NewDefaultParams()
	}
	c := *p
	return &c
}

// withDefaults fills fields that cannot be used as given.
func (p *Params) withDefaults() Params {
	d := NewDefaultParams()
	if p == nil {
		return *d
	}
	out := *p
	if out.VibratoFrequency < 0 {
		out.VibratoFrequency = d.VibratoFrequency
	}
	if out.OutputGain < 0 {
		out.OutputGain = d.OutputGain
	}
	if out.JetRatio <= 0 || out.JetRatio >= 1 {
		out.JetRatio = d.JetRatio
	}
	if out.DecayTime <= 0 {
		out.DecayTime = d.DecayTime
	}
	if !(out.SustainLevel > 0) {
		out.SustainLevel = d.SustainLevel
	}
	if out.SustainLevel > 1 {
		out.SustainLevel = 1
	}
	if out.NoteOffRate <= 0 {
		out.NoteOffRate = d.NoteOffRate
	}
	if out.LowestFrequency <= 0 {
		out.LowestFrequency = d.LowestFrequency
	}
	return out
}
