package dsp

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/signal"
)

func TestNoiseIsDeterministicAndBounded(t *testing.T) {
	a, err := NewNoise(7)
	if err != nil {
		t.Fatalf("NewNoise: %v", err)
	}
	b, err := NewNoise(7)
	if err != nil {
		t.Fatalf("NewNoise: %v", err)
	}
	var sum, sumSq float64
	const n = 20000
	for i := 0; i < n; i++ {
		x := a.Tick()
		if y := b.Tick(); x != y {
			t.Fatalf("sample %d differs: %f vs %f", i, x, y)
		}
		if x < -1 || x > 1 {
			t.Fatalf("sample %d out of range: %f", i, x)
		}
		sum += x
		sumSq += x * x
	}
	mean := sum / n
	if math.Abs(mean) > 0.03 {
		t.Fatalf("expected near-zero mean, got %f", mean)
	}
	// Uniform [-1,1] has variance 1/3.
	if v := sumSq / n; math.Abs(v-1.0/3.0) > 0.03 {
		t.Fatalf("unexpected variance %f", v)
	}
}

func TestNoiseSeedsDiffer(t *testing.T) {
	a, _ := NewNoise(1)
	b, _ := NewNoise(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Tick() == b.Tick() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("expected different streams, %d equal samples", same)
	}
}

func TestNoiseReset(t *testing.T) {
	n, _ := NewNoise(3)
	first := n.Tick()
	n.Tick()
	n.Reset()
	if got := n.Tick(); got != first {
		t.Fatalf("expected replay after reset: got=%f want=%f", got, first)
	}
}

func TestNoiseMatchesGeneratorWhiteNoise(t *testing.T) {
	const n = 4096
	want, err := signal.NewGeneratorWithOptions(nil, signal.WithSeed(11)).WhiteNoise(1, n)
	if err != nil {
		t.Fatalf("WhiteNoise: %v", err)
	}
	src, _ := NewNoise(11)
	for i, w := range want {
		if got := src.Tick(); got != w {
			t.Fatalf("sample %d: got %g want %g", i, got, w)
		}
	}
}

func TestNoiseDoesNotCycle(t *testing.T) {
	const period = 1 << 17
	src, _ := NewNoise(5)
	head := make([]float64, 64)
	for i := range head {
		head[i] = src.Tick()
	}
	for i := len(head); i < period; i++ {
		src.Tick()
	}
	same := 0
	for i := range head {
		if src.Tick() == head[i] {
			same++
		}
	}
	if same > 2 {
		t.Fatalf("stream repeats after %d samples (%d equal)", period, same)
	}
}

func TestSineWaveMatchesSin(t *testing.T) {
	const sampleRate = 48000.0
	s, err := NewSineWave(sampleRate)
	if err != nil {
		t.Fatalf("NewSineWave: %v", err)
	}
	s.SetFrequency(440)
	if math.Abs(s.Frequency()-440) > 1e-9 {
		t.Fatalf("frequency mismatch: %f", s.Frequency())
	}
	for i := 0; i < 4800; i++ {
		got := s.Tick()
		want := math.Sin(2 * math.Pi * 440 * float64(i) / sampleRate)
		if math.Abs(got-want) > 1e-4 {
			t.Fatalf("sample %d: got=%f want=%f", i, got, want)
		}
	}
}

func TestSineWaveRejectsBadRate(t *testing.T) {
	if _, err := NewSineWave(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}
