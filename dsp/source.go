package dsp

import (
	"fmt"
	"math/rand"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

const sineTableSize = 2048

// Noise is a deterministic white noise source in [-1, 1].
//
// Samples are drawn per tick from a seeded stream, the same sequence
// signal.Generator.WhiteNoise produces for that seed, so the stream never
// cycles and two sources built with the same seed are identical.
type Noise struct {
	seed int64
	rng  *rand.Rand
	last float64
}

// NewNoise creates a noise source from seed.
func NewNoise(seed int64) (*Noise, error) {
	return &Noise{seed: seed, rng: rand.New(rand.NewSource(seed))}, nil
}

// Tick returns the next noise sample.
func (n *Noise) Tick() float64 {
	n.last = n.rng.Float64()*2 - 1
	return n.last
}

// LastOut returns the most recent sample.
func (n *Noise) LastOut() float64 {
	return n.last
}

// Reset rewinds the source to the start of its sequence.
func (n *Noise) Reset() {
	n.rng.Seed(n.seed)
	n.last = 0
}

// SineWave is a wavetable sine oscillator with linear interpolation.
type SineWave struct {
	sampleRate float64
	table      []float64
	time       float64
	rate       float64
	last       float64
}

// NewSineWave creates an oscillator at 0 Hz.
func NewSineWave(sampleRate float64) (*SineWave, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dsp: sine sample rate must be > 0: %f", sampleRate)
	}
	// One cycle over sineTableSize samples plus a guard point for interpolation.
	gen := signal.NewGenerator(dspcore.WithSampleRate(sineTableSize))
	table, err := gen.Sine(1, 1, sineTableSize+1)
	if err != nil {
		return nil, fmt.Errorf("dsp: sine table: %w", err)
	}
	return &SineWave{sampleRate: sampleRate, table: table}, nil
}

// SetFrequency sets the oscillator frequency in Hz. Negative values run the
// table backwards.
func (s *SineWave) SetFrequency(hz float64) {
	s.rate = sineTableSize * hz / s.sampleRate
}

// Frequency returns the current frequency in Hz.
func (s *SineWave) Frequency() float64 {
	return s.rate * s.sampleRate / sineTableSize
}

// Tick returns the next sample.
func (s *SineWave) Tick() float64 {
	for s.time < 0 {
		s.time += sineTableSize
	}
	for s.time >= sineTableSize {
		s.time -= sineTableSize
	}
	i := int(s.time)
	alpha := s.time - float64(i)
	v := s.table[i]
	v += alpha * (s.table[i+1] - v)
	s.time += s.rate
	s.last = v
	return v
}

// Reset sets the phase back to zero.
func (s *SineWave) Reset() {
	s.time = 0
	s.last = 0
}
