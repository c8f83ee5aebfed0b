package analysis

import (
	"math"
	"testing"
)

func TestHarmonicProfileLevels(t *testing.T) {
	const sr = 48000
	const n = 8192
	f0 := 440.0
	x := make([]float64, n)
	for i := range x {
		ti := float64(i) / sr
		x[i] = 0.5*math.Sin(2*math.Pi*f0*ti) + 0.125*math.Sin(2*math.Pi*2*f0*ti)
	}
	got, err := HarmonicProfile(x, sr, f0, 3)
	if err != nil {
		t.Fatalf("HarmonicProfile: %v", err)
	}
	want := []float64{20 * math.Log10(0.5), 20 * math.Log10(0.125)}
	for k, w := range want {
		if math.Abs(got[k]-w) > 0.5 {
			t.Fatalf("partial %d = %.2f dB, want %.2f dB", k+1, got[k], w)
		}
	}
	if got[2] > -60 {
		t.Fatalf("absent third partial = %.2f dB, want below -60 dB", got[2])
	}
}

func TestHarmonicProfileFloorsAboveNyquist(t *testing.T) {
	const sr = 48000
	x := makeSine(sr, 10000, 0.5, 4096)
	got, err := HarmonicProfile(x, sr, 10000, 4)
	if err != nil {
		t.Fatalf("HarmonicProfile: %v", err)
	}
	if got[2] != profileFloorDB || got[3] != profileFloorDB {
		t.Fatalf("partials above Nyquist = %v, want floor", got[2:])
	}
}

func TestHarmonicProfileRejectsBadArguments(t *testing.T) {
	x := makeSine(48000, 440, 0.5, 4096)
	if _, err := HarmonicProfile(x, 0, 440, 4); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := HarmonicProfile(x, 48000, 0, 4); err == nil {
		t.Fatal("expected error for zero fundamental")
	}
	if _, err := HarmonicProfile(x, 48000, 440, 0); err == nil {
		t.Fatal("expected error for zero harmonic count")
	}
	if _, err := HarmonicProfile(x[:8], 48000, 440, 4); err == nil {
		t.Fatal("expected error for short block")
	}
}

func TestGoertzelPowerMatchesDFT(t *testing.T) {
	const sr = 44100.0
	x := randomSignal(1000, 5)
	for _, f := range []float64{0, 123.4, 1000, 7350.5, 20000} {
		w := 2 * math.Pi * f / sr
		var re, im float64
		for n, v := range x {
			re += v * math.Cos(w*float64(n))
			im -= v * math.Sin(w*float64(n))
		}
		want := re*re + im*im
		got := goertzelPower(x, f, sr)
		if math.Abs(got-want) > 1e-6*math.Max(1, want) {
			t.Fatalf("f=%.1f: power %g, want %g", f, got, want)
		}
	}
}
