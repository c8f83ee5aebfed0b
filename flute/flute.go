// Package flute implements a single-voice waveguide flute: a jet delay and a
// bore delay closed into a feedback loop through a nonlinear jet function,
// driven by an enveloped breath pressure with noise and vibrato.
package flute

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-flute/dsp"
)

const (
	// DelayCorrection is subtracted from the loop length to account for the
	// reflection filter's phase delay.
	DelayCorrection = 2.0
	// DCBlockPole is the pole of the DC blocker after the jet.
	DCBlockPole = 0.99

	outputScale     = 0.3
	pressureNorm    = 0.8
	defaultFreq     = 220.0
	minLoopLength   = 1.0
	delayHeadroom   = 4
	defaultStrength = 1.1
)

// Flute is one physically modeled flute voice. It is not safe for
// concurrent use; control calls and Tick must be serialized by the caller.
type Flute struct {
	sampleRate float64

	jetDelay  *dsp.DelayL
	boreDelay *dsp.DelayL
	jet       JetShaper
	filter    *dsp.OnePole
	dcBlock   *dsp.PoleZero
	noise     *dsp.Noise
	vibrato   *dsp.SineWave
	adsr      *dsp.ADSR
	observer  Observer

	lowestFrequency float64
	lastFrequency   float64
	maxPressure     float64
	jetReflection   float64
	endReflection   float64
	noiseGain       float64
	vibratoGain     float64
	outputGain      float64
	presetGain      float64
	jetRatio        float64
	noteOffRate     float64

	lastOut float64
}

// Option configures a Flute at construction.
type Option func(*Flute)

// WithJet replaces the default tanh jet function.
func WithJet(j JetShaper) Option {
	return func(f *Flute) {
		if j != nil {
			f.jet = j
		}
	}
}

// WithObserver attaches a per-tick diagnostics observer.
func WithObserver(o Observer) Option {
	return func(f *Flute) {
		f.observer = o
	}
}

// New creates a flute voice at the given sample rate. A nil params uses
// NewDefaultParams.
func New(sampleRate int, params *Params, opts ...Option) (*Flute, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidArgument, sampleRate)
	}
	p := params.withDefaults()
	sr := float64(sampleRate)

	maxDelay := int(math.Ceil(sr/p.LowestFrequency)) + delayHeadroom
	jetDelay, err := dsp.NewDelayL(maxDelay)
	if err != nil {
		return nil, err
	}
	boreDelay, err := dsp.NewDelayL(maxDelay)
	if err != nil {
		return nil, err
	}
	noise, err := dsp.NewNoise(p.NoiseSeed)
	if err != nil {
		return nil, err
	}
	vibrato, err := dsp.NewSineWave(sr)
	if err != nil {
		return nil, err
	}
	vibrato.SetFrequency(p.VibratoFrequency)

	adsr := dsp.NewADSR(sr)
	adsr.SetSustainLevel(p.SustainLevel)
	adsr.SetDecayTime(p.DecayTime)
	adsr.SetReleaseRate(p.NoteOffRate)

	f := &Flute{
		sampleRate:      sr,
		jetDelay:        jetDelay,
		boreDelay:       boreDelay,
		jet:             TanhJet{A: DefaultJetShape},
		filter:          dsp.NewOnePole(0.7 - 0.1*22050.0/sr),
		dcBlock:         dsp.NewDCBlocker(DCBlockPole),
		noise:           noise,
		vibrato:         vibrato,
		adsr:            adsr,
		lowestFrequency: p.LowestFrequency,
		jetReflection:   p.JetReflection,
		endReflection:   p.EndReflection,
		noiseGain:       p.NoiseGain,
		vibratoGain:     p.VibratoGain,
		outputGain:      p.OutputGain,
		presetGain:      p.OutputGain,
		jetRatio:        p.JetRatio,
		noteOffRate:     p.NoteOffRate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.Clear()
	f.SetFrequency(defaultFreq)
	return f, nil
}

// Clear erases all energy in the waveguide: both delay lines, the
// reflection filter and the DC blocker. The blocker is settled on the jet's
// resting output so an unblown, cleared voice stays silent.
func (f *Flute) Clear() {
	f.jetDelay.Clear()
	f.boreDelay.Clear()
	f.filter.Clear()
	f.dcBlock.Clear()
	f.dcBlock.SettleTo(f.restingJet())
	f.lastOut = 0
}

func (f *Flute) restingJet() float64 {
	v := f.jet.Shape(0)
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// SetFrequency tunes the loop to frequency in Hz. Frequencies below the
// lowest supported frequency (including non-positive ones) are raised to
// it, as are NaN and infinite values. Delay contents are kept, so retuning while sounding is continuous.
func (f *Flute) SetFrequency(frequency float64) {
	if !isFinite(frequency) || frequency < f.lowestFrequency {
		frequency = f.lowestFrequency
	}
	f.lastFrequency = frequency
	f.updateDelays()
}

// SetJetReflection sets the jet reflection coefficient. Values outside
// [-1, 1] are accepted but make the loop unstable.
func (f *Flute) SetJetReflection(coefficient float64) {
	f.jetReflection = coefficient
}

// SetEndReflection sets the bore end reflection coefficient.
func (f *Flute) SetEndReflection(coefficient float64) {
	f.endReflection = coefficient
}

// SetJetDelay sets the jet length as a fraction of the loop length and
// re-derives both delays from the current frequency.
func (f *Flute) SetJetDelay(ratio float64) {
	f.jetRatio = ratio
	f.updateDelays()
}

func (f *Flute) updateDelays() {
	total := f.sampleRate/f.lastFrequency - DelayCorrection
	if total < minLoopLength {
		total = minLoopLength
	}
	f.jetDelay.SetDelay(f.jetRatio * total)
	f.boreDelay.SetDelay((1 - f.jetRatio) * total)
}

// StartBlowing ramps the breath up at rate (per sample) toward a pressure
// of amplitude once the envelope settles at its sustain level.
func (f *Flute) StartBlowing(amplitude, rate float64) {
	f.adsr.SetAttackRate(rate)
	f.maxPressure = amplitude / pressureNorm
	f.adsr.KeyOn()
}

// StopBlowing releases the breath at rate (per sample) from its current value.
func (f *Flute) StopBlowing(rate float64) {
	f.adsr.SetReleaseRate(rate)
	f.adsr.KeyOff()
}

// NoteOn tunes the voice and starts blowing with a pressure and attack rate
// derived from amplitude in [0, 1]. The output gain becomes
// (amplitude + 0.001) scaled by the configured Params.OutputGain.
func (f *Flute) NoteOn(frequency, amplitude float64) {
	f.SetFrequency(frequency)
	f.StartBlowing(defaultStrength+0.2*amplitude, 0.02*amplitude)
	f.outputGain = (amplitude + 0.001) * f.presetGain
}

// NoteOff stops blowing at the configured note-off rate. The amplitude is
// not used.
func (f *Flute) NoteOff(amplitude float64) {
	f.StopBlowing(f.noteOffRate)
}

// Tick computes one output sample.
func (f *Flute) Tick() float64 {
	breath := f.maxPressure * f.adsr.Tick()
	breath += breath * (f.noiseGain*f.noise.Tick() + f.vibratoGain*f.vibrato.Tick())

	// The bore output of the previous sample closes the loop.
	temp := -f.filter.Tick(f.boreDelay.LastOut())

	jetIn := breath - f.jetReflection*temp
	jetOut := f.jetDelay.Tick(jetIn)

	shaped := f.jet.Shape(jetOut)
	if shaped > 1 {
		shaped = 1
	}
	if shaped < -1 {
		shaped = -1
	}

	boreIn := f.dcBlock.Tick(shaped) + f.endReflection*temp
	out := outputScale * f.boreDelay.Tick(boreIn) * f.outputGain
	f.lastOut = out

	if f.observer != nil {
		f.observer.ObserveTick(TickTrace{
			Breath:     breath,
			Reflection: temp,
			JetIn:      jetIn,
			JetOut:     jetOut,
			Shaped:     shaped,
			Output:     out,
		})
	}
	return out
}

// TickFrames fills frames starting at channel with one Tick per frame. The
// mono sample is copied into every channel from channel to the end of the
// frame. Nothing is written when the arguments do not fit.
func (f *Flute) TickFrames(frames *dsp.Frames, channel int) error {
	if err := frames.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if channel < 0 || channel > frames.Channels-1 {
		return fmt.Errorf("%w: channel %d does not fit %d-channel frames", ErrInvalidArgument, channel, frames.Channels)
	}
	hop := frames.Channels
	for i := channel; i < len(frames.Data); i += hop {
		v := f.Tick()
		for j := i; j < i+hop-channel; j++ {
			frames.Data[j] = v
		}
	}
	return nil
}

// LastOut returns the most recent output sample.
func (f *Flute) LastOut() float64 { return f.lastOut }

// LastFrequency returns the frequency the loop is tuned to.
func (f *Flute) LastFrequency() float64 { return f.lastFrequency }

// JetRatio returns the jet length as a fraction of the loop.
func (f *Flute) JetRatio() float64 { return f.jetRatio }

// JetDelay returns the jet delay length in samples.
func (f *Flute) JetDelay() float64 { return f.jetDelay.Delay() }

// BoreDelay returns the bore delay length in samples.
func (f *Flute) BoreDelay() float64 { return f.boreDelay.Delay() }

// MaxPressure returns the breath pressure at full envelope.
func (f *Flute) MaxPressure() float64 { return f.maxPressure }

// BreathEnvelope returns the current envelope value without advancing it.
func (f *Flute) BreathEnvelope() float64 { return f.adsr.Value() }

// EnvelopeState returns the phase of the breath envelope.
func (f *Flute) EnvelopeState() dsp.EnvelopeState { return f.adsr.State() }

// Active reports whether the breath envelope is still running.
func (f *Flute) Active() bool { return f.adsr.State() != dsp.EnvelopeIdle }

// SampleRate returns the sample rate in Hz.
func (f *Flute) SampleRate() float64 { return f.sampleRate }
