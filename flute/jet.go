package flute

import (
	"fmt"
	"math"
	"strings"
)

// JetShaper is the nonlinear jet function mapping the delayed pressure
// difference at the embouchure to the flow driving the bore.
type JetShaper interface {
	Shape(x float64) float64
}

// DefaultJetShape is the shape parameter of the default tanh jet.
const DefaultJetShape = 3.0

// TanhJet is a smooth saturating jet curve centred at (A+0.5)/A with a
// transition width of 1/(2A). Its output lies in [1/6, 5/6].
type TanhJet struct {
	A float64
}

// Shape implements JetShaper.
func (j TanhJet) Shape(x float64) float64 {
	a := j.A
	if a <= 0 {
		a = DefaultJetShape
	}
	return 1.0/3.0*math.Tanh((x-(a+0.5)/a)*2*a) + 0.5
}

// CubicJet is the classic polynomial jet table x*(x^2-1), limited to [-1, 1].
type CubicJet struct{}

// Shape implements JetShaper.
func (CubicJet) Shape(x float64) float64 {
	y := x * (x*x - 1)
	if y > 1 {
		return 1
	}
	if y < -1 {
		return -1
	}
	return y
}

// TableJet samples another shaper into a lookup table and interpolates
// linearly between points. Inputs outside the table range hold the edge
// values.
type TableJet struct {
	lo, hi float64
	scale  float64
	table  []float64
}

// NewTableJet tabulates src over [lo, hi] with size points.
func NewTableJet(src JetShaper, lo, hi float64, size int) (*TableJet, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil jet shaper", ErrInvalidArgument)
	}
	if size < 2 {
		return nil, fmt.Errorf("%w: jet table size must be >= 2: %d", ErrInvalidArgument, size)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("%w: jet table range [%g, %g] is empty", ErrInvalidArgument, lo, hi)
	}
	t := &TableJet{
		lo:    lo,
		hi:    hi,
		scale: float64(size-1) / (hi - lo),
		table: make([]float64, size),
	}
	step := (hi - lo) / float64(size-1)
	for i := range t.table {
		t.table[i] = src.Shape(lo + float64(i)*step)
	}
	return t, nil
}

// Shape implements JetShaper.
func (t *TableJet) Shape(x float64) float64 {
	if !(x > t.lo) {
		return t.table[0]
	}
	if x >= t.hi {
		return t.table[len(t.table)-1]
	}
	pos := (x - t.lo) * t.scale
	i := int(pos)
	if i >= len(t.table)-1 {
		return t.table[len(t.table)-1]
	}
	frac := pos - float64(i)
	return t.table[i] + frac*(t.table[i+1]-t.table[i])
}

// NewJetShaper returns a shaper by name: "tanh", "cubic" or "table" (a
// tabulated tanh jet).
func NewJetShaper(name string) (JetShaper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tanh":
		return TanhJet{A: DefaultJetShape}, nil
	case "cubic":
		return CubicJet{}, nil
	case "table":
		return NewTableJet(TanhJet{A: DefaultJetShape}, -1, 3, 1024)
	}
	return nil, fmt.Errorf("%w: unknown jet shaper %q (valid: tanh, cubic, table)", ErrInvalidArgument, name)
}
