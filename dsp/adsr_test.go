package dsp

import (
	"math"
	"testing"
)

func TestADSRIdleIsSilent(t *testing.T) {
	e := NewADSR(44100)
	for i := 0; i < 100; i++ {
		if v := e.Tick(); v != 0 {
			t.Fatalf("expected idle envelope to stay at zero, got %f", v)
		}
	}
	if e.State() != EnvelopeIdle {
		t.Fatalf("expected idle, got %s", e.State())
	}
}

func TestADSRReachesSustain(t *testing.T) {
	e := NewADSR(44100)
	e.SetAllTimes(0.005, 0.01, 0.8, 0.01)
	e.KeyOn()

	seen := map[EnvelopeState]bool{}
	for i := 0; i < 44100; i++ {
		e.Tick()
		seen[e.State()] = true
	}
	if !seen[EnvelopeDecay] || e.State() != EnvelopeSustain {
		t.Fatalf("expected attack->decay->sustain, states=%v final=%s", seen, e.State())
	}
	if math.Abs(e.Value()-0.8) > 1e-12 {
		t.Fatalf("expected sustain level 0.8, got %f", e.Value())
	}
}

func TestADSRAttackRateControlsRiseTime(t *testing.T) {
	e := NewADSR(44100)
	e.SetSustainLevel(1)
	e.SetAttackRate(0.01)
	e.KeyOn()
	n := 0
	for e.State() == EnvelopeAttack && n < 1000 {
		e.Tick()
		n++
	}
	if n < 99 || n > 101 {
		t.Fatalf("expected about 100 attack samples, got %d", n)
	}
}

func TestADSRReleaseBeforeSustainIsContinuous(t *testing.T) {
	e := NewADSR(44100)
	e.SetAllTimes(0.005, 0.01, 0.8, 0.01)
	e.SetAttackRate(0.02)
	e.KeyOn()
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	before := e.Value()
	if before <= 0 || before >= 1 {
		t.Fatalf("expected mid-attack value, got %f", before)
	}

	const rate = 0.001
	e.SetReleaseRate(rate)
	e.KeyOff()
	first := e.Tick()
	if first > before || before-first > rate+1e-12 {
		t.Fatalf("expected release to start from %f, got %f", before, first)
	}

	prev := first
	n := 1
	for e.State() != EnvelopeIdle {
		v := e.Tick()
		if v > prev {
			t.Fatalf("release rose at sample %d: %f > %f", n, v, prev)
		}
		prev = v
		n++
		if n > 10000 {
			t.Fatalf("release did not finish")
		}
	}
	limit := int(math.Ceil(before/rate)) + 1
	if n > limit {
		t.Fatalf("release took %d samples, expected at most %d", n, limit)
	}
	if e.Value() != 0 {
		t.Fatalf("expected zero after release, got %f", e.Value())
	}
}

func TestADSRSetTargetMovesTowardLevel(t *testing.T) {
	e := NewADSR(44100)
	e.SetAllTimes(0.005, 0.01, 0.8, 0.01)
	e.KeyOn()
	for i := 0; i < 4000; i++ {
		e.Tick()
	}
	e.SetTarget(0.3)
	if e.State() != EnvelopeDecay {
		t.Fatalf("expected decay toward lower target, got %s", e.State())
	}
	for i := 0; i < 4000; i++ {
		e.Tick()
	}
	if math.Abs(e.Value()-0.3) > 1e-12 {
		t.Fatalf("expected value 0.3, got %f", e.Value())
	}
	e.SetTarget(0.9)
	if e.State() != EnvelopeAttack {
		t.Fatalf("expected attack toward higher target, got %s", e.State())
	}
}

func TestADSRReleaseTimeScalesWithValue(t *testing.T) {
	e := NewADSR(1000)
	e.SetAllTimes(0.001, 0.001, 1.0, 0.1)
	e.SetValue(0.5)
	e.KeyOff()
	n := 0
	for e.State() != EnvelopeIdle && n < 1000 {
		e.Tick()
		n++
	}
	if n < 99 || n > 101 {
		t.Fatalf("expected 100 samples of release, got %d", n)
	}
}

func TestADSRDecaySettlesOnSustainAboveAttackTarget(t *testing.T) {
	e := NewADSR(1000)
	e.SetAllTimes(0.01, 0.05, 1.5, 0.01)
	e.KeyOn()
	for i := 0; i < 1000; i++ {
		e.Tick()
	}
	if e.State() != EnvelopeSustain {
		t.Fatalf("expected sustain, got %s", e.State())
	}
	if math.Abs(e.Value()-1.5) > 1e-12 {
		t.Fatalf("expected value at sustain level 1.5, got %f", e.Value())
	}
}
