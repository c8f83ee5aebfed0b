package analysis

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const profileFloorDB = -240.0

// HarmonicProfile returns the amplitudes in dB of the first n partials
// k*f0 (k = 1..n) of x, measured with Goertzel filters over a Hann-windowed
// block. A full-scale sine at f0 reads close to 0 dB in the first slot.
// Partials at or above Nyquist are reported at the floor value.
func HarmonicProfile(x []float64, sampleRate int, f0 float64, n int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analysis: invalid sample rate %d", sampleRate)
	}
	if !(f0 > 0) || math.IsInf(f0, 0) {
		return nil, fmt.Errorf("analysis: invalid fundamental %g", f0)
	}
	if n < 1 {
		return nil, fmt.Errorf("analysis: harmonic count must be >= 1, got %d", n)
	}
	if len(x) < 16 {
		return nil, fmt.Errorf("analysis: block too short (%d samples)", len(x))
	}

	coeffs, err := window.Hann(len(x))
	if err != nil {
		return nil, fmt.Errorf("analysis: window: %w", err)
	}
	windowed, err := window.ApplyCoefficients(x, coeffs)
	if err != nil {
		return nil, fmt.Errorf("analysis: window: %w", err)
	}
	var gain float64
	for _, w := range coeffs {
		gain += w
	}
	if gain <= 0 {
		return nil, fmt.Errorf("analysis: degenerate window")
	}

	sr := float64(sampleRate)
	out := make([]float64, n)
	for k := 1; k <= n; k++ {
		f := float64(k) * f0
		if f >= sr/2 {
			out[k-1] = profileFloorDB
			continue
		}
		p := goertzelPower(windowed, f, sr)
		amp := 2 * math.Sqrt(math.Max(p, 0)) / gain
		out[k-1] = linToDB(amp)
	}
	return out, nil
}

// goertzelPower returns |X(f)|^2 of block x. The Goertzel recursion
// s[n] = x[n] + 2cos(w)*s[n-1] - s[n-2] runs as a biquad resonator.
func goertzelPower(x []float64, freq, sampleRate float64) float64 {
	coeff := 2 * math.Cos(2*math.Pi*freq/sampleRate)
	res := biquad.NewSection(biquad.Coefficients{B0: 1, A1: -coeff, A2: 1})
	var s0, s1 float64
	for _, v := range x {
		s0, s1 = res.ProcessSample(v), s0
	}
	return s0*s0 + s1*s1 - coeff*s0*s1
}
