package analysis

import (
	"math"
	"testing"
)

func TestBoreModesMatchOpenPipe(t *testing.T) {
	const length = 0.6
	modes, err := BoreModes(length, SpeedOfSound, 4)
	if err != nil {
		t.Fatalf("BoreModes: %v", err)
	}
	f1 := SpeedOfSound / (2 * length)
	for k, f := range modes {
		want := float64(k+1) * f1
		if math.Abs(f-want)/want > 0.01 {
			t.Fatalf("mode %d = %g Hz, want ~%g Hz", k+1, f, want)
		}
		if k > 0 && f <= modes[k-1] {
			t.Fatalf("modes not increasing: %v", modes)
		}
	}
}

func TestBoreFrequencyShorterIsHigher(t *testing.T) {
	long, err := BoreFrequency(0.66, SpeedOfSound)
	if err != nil {
		t.Fatalf("BoreFrequency: %v", err)
	}
	short, err := BoreFrequency(0.33, SpeedOfSound)
	if err != nil {
		t.Fatalf("BoreFrequency: %v", err)
	}
	if ratio := short / long; math.Abs(ratio-2) > 0.02 {
		t.Fatalf("halving the bore gave ratio %g, want ~2", ratio)
	}
}

func TestBoreModesRejectsBadArguments(t *testing.T) {
	if _, err := BoreModes(0, SpeedOfSound, 1); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := BoreModes(0.5, -1, 1); err == nil {
		t.Fatal("expected error for negative speed of sound")
	}
	if _, err := BoreModes(0.5, SpeedOfSound, 0); err == nil {
		t.Fatal("expected error for zero modes")
	}
}
