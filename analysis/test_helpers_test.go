package analysis

import (
	"math"
	"math/rand"
)

// makeTone renders a sustained harmonic tone with linear attack and release
// ramps. partials[k] is the amplitude of harmonic k+1.
func makeTone(sr int, freq float64, durationSec float64, partials []float64) []float64 {
	n := int(float64(sr) * durationSec)
	ramp := sr / 20
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := 1.0
		if i < ramp {
			env = float64(i) / float64(ramp)
		}
		if tail := n - 1 - i; tail < ramp {
			env = math.Min(env, float64(tail)/float64(ramp))
		}
		var v float64
		for k, a := range partials {
			v += a * math.Sin(2*math.Pi*freq*float64(k+1)*t)
		}
		out[i] = env * v
	}
	return out
}

func makeSine(sr int, freq float64, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}
