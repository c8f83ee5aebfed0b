package flute

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// MIDINoteToFrequency converts a MIDI note number to frequency in Hz.
func MIDINoteToFrequency(note int) float64 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return float64(a4Freq * pow2Approx(exponent))
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
