package flute

import (
	"math"
	"testing"
)

func newTestFlute(t *testing.T, sampleRate int, params *Params, opts ...Option) *Flute {
	t.Helper()
	f, err := New(sampleRate, params, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func render(f *Flute, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f.Tick()
	}
	return out
}

func meanAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += math.Abs(v)
	}
	return sum / float64(len(x))
}

func windowRMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

type traceRecorder struct {
	traces []TickTrace
}

func (r *traceRecorder) ObserveTick(t TickTrace) {
	r.traces = append(r.traces, t)
}
