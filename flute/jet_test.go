package flute

import (
	"errors"
	"math"
	"testing"
)

func TestTanhJetShape(t *testing.T) {
	j := TanhJet{A: 3}
	center := (3 + 0.5) / 3
	if got := j.Shape(center); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected 0.5 at centre, got %f", got)
	}
	prev := j.Shape(-10)
	for x := -10.0; x <= 10; x += 0.01 {
		y := j.Shape(x)
		if y < 1.0/6.0-1e-12 || y > 5.0/6.0+1e-12 {
			t.Fatalf("shape(%f)=%f outside [1/6, 5/6]", x, y)
		}
		if y < prev-1e-15 {
			t.Fatalf("shape not monotonic at %f", x)
		}
		prev = y
	}
	if (TanhJet{}).Shape(center) != j.Shape(center) {
		t.Fatalf("expected zero A to use the default shape")
	}
}

func TestCubicJetClamps(t *testing.T) {
	j := CubicJet{}
	if j.Shape(0.5) != 0.5*(0.25-1) {
		t.Fatalf("unexpected cubic value")
	}
	if j.Shape(3) != 1 || j.Shape(-3) != -1 {
		t.Fatalf("expected clamp at +-1")
	}
}

func TestTableJetApproximatesSource(t *testing.T) {
	src := TanhJet{A: 3}
	tab, err := NewTableJet(src, -1, 3, 4096)
	if err != nil {
		t.Fatalf("NewTableJet: %v", err)
	}
	for x := -0.99; x < 2.99; x += 0.0137 {
		if d := math.Abs(tab.Shape(x) - src.Shape(x)); d > 1e-3 {
			t.Fatalf("table error %g at %f", d, x)
		}
	}
	if tab.Shape(-50) != src.Shape(-1) || tab.Shape(50) != src.Shape(3) {
		t.Fatalf("expected edge values outside the table range")
	}
	if v := tab.Shape(math.NaN()); v != src.Shape(-1) {
		t.Fatalf("expected NaN to map to the low edge, got %f", v)
	}
}

func TestNewTableJetValidation(t *testing.T) {
	if _, err := NewTableJet(nil, -1, 1, 16); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected error for nil source")
	}
	if _, err := NewTableJet(CubicJet{}, -1, 1, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected error for tiny table")
	}
	if _, err := NewTableJet(CubicJet{}, 1, 1, 16); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected error for empty range")
	}
}

func TestNewJetShaperByName(t *testing.T) {
	for _, name := range []string{"", "tanh", "Cubic", "table"} {
		if _, err := NewJetShaper(name); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := NewJetShaper("sine"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected error for unknown shaper")
	}
}
