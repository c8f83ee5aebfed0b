package dsp

import "math"

// EnvelopeState is the phase of an ADSR envelope.
type EnvelopeState int

const (
	EnvelopeIdle EnvelopeState = iota
	EnvelopeAttack
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
)

func (s EnvelopeState) String() string {
	switch s {
	case EnvelopeIdle:
		return "idle"
	case EnvelopeAttack:
		return "attack"
	case EnvelopeDecay:
		return "decay"
	case EnvelopeSustain:
		return "sustain"
	case EnvelopeRelease:
		return "release"
	}
	return "unknown"
}

// ADSR is a linear attack/decay/sustain/release envelope.
//
// Rates are per-sample increments. Times are converted to rates using the
// sample rate given at construction.
type ADSR struct {
	sampleRate float64

	attackRate   float64
	decayRate    float64
	releaseRate  float64
	releaseTime  float64
	sustainLevel float64

	target float64
	value  float64
	state  EnvelopeState
}

// NewADSR creates an idle envelope.
func NewADSR(sampleRate float64) *ADSR {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &ADSR{
		sampleRate:   sampleRate,
		attackRate:   0.001,
		decayRate:    0.001,
		releaseRate:  0.005,
		releaseTime:  -1,
		sustainLevel: 0.5,
	}
}

// KeyOn starts the attack phase from the current value.
func (e *ADSR) KeyOn() {
	if e.target <= 0 {
		e.target = 1
	}
	e.state = EnvelopeAttack
}

// KeyOff starts the release phase from the current value.
func (e *ADSR) KeyOff() {
	e.target = 0
	e.state = EnvelopeRelease
	if e.releaseTime > 0 {
		e.releaseRate = e.value / (e.releaseTime * e.sampleRate)
	}
}

// SetAttackRate sets the per-sample attack increment.
func (e *ADSR) SetAttackRate(rate float64) {
	if rate < 0 {
		rate = -rate
	}
	e.attackRate = rate
}

// SetAttackTarget sets the level the attack phase climbs to.
func (e *ADSR) SetAttackTarget(target float64) {
	if target < 0 {
		target = 0
	}
	e.target = target
}

// SetDecayRate sets the per-sample decay increment.
func (e *ADSR) SetDecayRate(rate float64) {
	if rate < 0 {
		rate = -rate
	}
	e.decayRate = rate
}

// SetSustainLevel sets the sustain level.
func (e *ADSR) SetSustainLevel(level float64) {
	if level < 0 {
		level = 0
	}
	e.sustainLevel = level
}

// SetReleaseRate sets the per-sample release decrement. A rate overrides a
// previously set release time.
func (e *ADSR) SetReleaseRate(rate float64) {
	if rate < 0 {
		rate = -rate
	}
	e.releaseRate = rate
	e.releaseTime = -1
}

// SetAttackTime sets the attack duration in seconds from 0 to 1.
func (e *ADSR) SetAttackTime(seconds float64) {
	if seconds <= 0 {
		seconds = 1 / e.sampleRate
	}
	e.attackRate = 1 / (seconds * e.sampleRate)
}

// SetDecayTime sets the decay duration in seconds from 1 to the sustain level.
func (e *ADSR) SetDecayTime(seconds float64) {
	if seconds <= 0 {
		seconds = 1 / e.sampleRate
	}
	e.decayRate = math.Abs(1-e.sustainLevel) / (seconds * e.sampleRate)
}

// SetReleaseTime sets the release duration in seconds from the value at key-off.
func (e *ADSR) SetReleaseTime(seconds float64) {
	if seconds <= 0 {
		seconds = 1 / e.sampleRate
	}
	e.releaseRate = e.sustainLevel / (seconds * e.sampleRate)
	e.releaseTime = seconds
}

// SetAllTimes sets attack, decay and release times and the sustain level.
func (e *ADSR) SetAllTimes(attack, decay, sustain, release float64) {
	e.SetAttackTime(attack)
	e.SetSustainLevel(sustain)
	e.SetDecayTime(decay)
	e.SetReleaseTime(release)
}

// SetTarget moves the envelope toward a new level, which also becomes the
// sustain level.
func (e *ADSR) SetTarget(target float64) {
	if target < 0 {
		target = 0
	}
	e.target = target
	e.SetSustainLevel(target)
	if e.value < e.target {
		e.state = EnvelopeAttack
	}
	if e.value > e.target {
		e.state = EnvelopeDecay
	}
}

// SetValue forces the current value and drops into sustain.
func (e *ADSR) SetValue(value float64) {
	e.state = EnvelopeSustain
	e.target = value
	e.value = value
	e.SetSustainLevel(value)
}

// State returns the current phase.
func (e *ADSR) State() EnvelopeState {
	return e.state
}

// Value returns the current envelope value without advancing it.
func (e *ADSR) Value() float64 {
	return e.value
}

// Tick advances the envelope by one sample.
func (e *ADSR) Tick() float64 {
	switch e.state {
	case EnvelopeAttack:
		e.value += e.attackRate
		if e.value >= e.target {
			e.value = e.target
			e.target = e.sustainLevel
			e.state = EnvelopeDecay
		}
	case EnvelopeDecay:
		if e.value > e.sustainLevel {
			e.value -= e.decayRate
			if e.value <= e.sustainLevel {
				e.value = e.sustainLevel
				e.state = EnvelopeSustain
			}
		} else {
			// attack target was below the sustain level
			e.value += e.decayRate
			if e.value >= e.sustainLevel {
				e.value = e.sustainLevel
				e.state = EnvelopeSustain
			}
		}
	case EnvelopeRelease:
		e.value -= e.releaseRate
		if e.value <= 0 {
			e.value = 0
			e.state = EnvelopeIdle
		}
	}
	return e.value
}
