package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// ErrNoPitch is returned when no periodicity is found in the searched range.
var ErrNoPitch = errors.New("analysis: no pitch found")

const (
	maxPitchFrames = 1 << 15
	peakThreshold  = 0.9
)

// EstimateFundamental estimates the fundamental frequency of x in Hz.
//
// The autocorrelation is computed with an FFT convolution of the signal with
// its reverse. The first lag peak reaching 90% of the strongest peak in
// [sampleRate/maxHz, sampleRate/minHz] wins, refined by a parabola through
// its neighbours.
func EstimateFundamental(x []float64, sampleRate int, minHz, maxHz float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("analysis: invalid sample rate %d", sampleRate)
	}
	if !(minHz > 0) || !(maxHz > minHz) || maxHz >= float64(sampleRate)/2 {
		return 0, fmt.Errorf("analysis: invalid pitch range [%g, %g] Hz", minHz, maxHz)
	}
	minLag := int(math.Floor(float64(sampleRate) / maxHz))
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(math.Ceil(float64(sampleRate) / minHz))
	if len(x) > maxPitchFrames {
		x = x[:maxPitchFrames]
	}
	n := len(x)
	if n < 2*maxLag+2 {
		return 0, fmt.Errorf("analysis: need at least %d samples for %g Hz, have %d", 2*maxLag+2, minHz, n)
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	a := make([]float32, n)
	rev := make([]float32, n)
	for i, v := range x {
		a[i] = float32(v - mean)
		rev[n-1-i] = a[i]
	}
	conv := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(conv, a, rev); err != nil {
		return 0, fmt.Errorf("analysis: autocorrelation: %w", err)
	}

	r := make([]float64, maxLag+2)
	for k := range r {
		r[k] = float64(conv[n-1+k]) / float64(n-k)
	}
	if r[0] <= 1e-20 {
		return 0, ErrNoPitch
	}

	best := math.Inf(-1)
	for k := minLag; k <= maxLag; k++ {
		if isLagPeak(r, k) && r[k] > best {
			best = r[k]
		}
	}
	if best <= 0 || math.IsInf(best, -1) {
		return 0, ErrNoPitch
	}

	for k := minLag; k <= maxLag; k++ {
		if !isLagPeak(r, k) || r[k] < peakThreshold*best {
			continue
		}
		lag := float64(k) + parabolicOffset(r[k-1], r[k], r[k+1])
		return float64(sampleRate) / lag, nil
	}
	return 0, ErrNoPitch
}

func isLagPeak(r []float64, k int) bool {
	return r[k] > 0 && r[k] >= r[k-1] && r[k] >= r[k+1]
}

// parabolicOffset returns the vertex offset in (-0.5, 0.5) of the parabola
// through three equally spaced points centred on b.
func parabolicOffset(a, b, c float64) float64 {
	den := a - 2*b + c
	if math.Abs(den) < 1e-20 {
		return 0
	}
	d := 0.5 * (a - c) / den
	if d > 0.5 {
		return 0.5
	}
	if d < -0.5 {
		return -0.5
	}
	return d
}
