package flute

import (
	"fmt"
	"math"
)

// Control change numbers understood by ControlChange.
const (
	ControlVibratoGain      = 1
	ControlJetDelay         = 2
	ControlNoiseGain        = 4
	ControlOutputGain       = 7
	ControlVibratoFrequency = 11
	ControlJetReflection    = 13
	ControlEndReflection    = 14
	ControlBreathPressure   = 128
)

const controlRange = 128.0

// ControlChange applies controller number with value in [0, 128]. Values
// outside the range are clamped. Unknown numbers leave the voice unchanged
// and return an error wrapping ErrUnknownControl.
func (f *Flute) ControlChange(number int, value float64) error {
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	if value > controlRange {
		value = controlRange
	}
	n := value / controlRange

	switch number {
	case ControlVibratoGain:
		f.vibratoGain = 0.4 * n
	case ControlJetDelay:
		f.SetJetDelay(0.08 + 0.48*n)
	case ControlNoiseGain:
		f.noiseGain = 0.4 * n
	case ControlOutputGain:
		f.outputGain = n
	case ControlVibratoFrequency:
		f.vibrato.SetFrequency(12 * n)
	case ControlJetReflection:
		f.jetReflection = 2*n - 1
	case ControlEndReflection:
		f.endReflection = 2*n - 1
	case ControlBreathPressure:
		f.adsr.SetTarget(n)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownControl, number)
	}
	return nil
}
