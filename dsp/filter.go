package dsp

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// OnePole is a one-pole lowpass: y[n] = b0*x[n] + p*y[n-1], run as a
// first-order biquad section.
type OnePole struct {
	section *biquad.Section
	pole    float64
	last    float64
}

// NewOnePole creates a one-pole filter with the given pole.
func NewOnePole(pole float64) *OnePole {
	f := &OnePole{section: biquad.NewSection(biquad.Coefficients{})}
	f.SetPole(pole)
	return f
}

// SetPole places the pole and normalizes the peak gain to unity (at DC for
// positive poles, at Nyquist for negative ones). Filter state is kept.
func (f *OnePole) SetPole(pole float64) {
	pole = dspcore.Clamp(pole, -0.999999, 0.999999)
	b0 := 1 + pole
	if pole > 0 {
		b0 = 1 - pole
	}
	f.pole = pole
	f.section.Coefficients = biquad.Coefficients{B0: b0, A1: -pole}
}

// Pole returns the current pole position.
func (f *OnePole) Pole() float64 {
	return f.pole
}

// Tick filters one sample.
func (f *OnePole) Tick(input float64) float64 {
	f.last = flushSection(f.section, f.section.ProcessSample(input))
	return f.last
}

// LastOut returns the most recent output.
func (f *OnePole) LastOut() float64 {
	return f.last
}

// Clear resets the filter state.
func (f *OnePole) Clear() {
	f.section.Reset()
	f.last = 0
}

// PoleZero is a first-order pole-zero filter: y = b0*x + b1*x1 - a1*y1.
type PoleZero struct {
	section *biquad.Section
	last    float64
}

// NewDCBlocker returns a PoleZero configured as a DC blocker.
func NewDCBlocker(pole float64) *PoleZero {
	f := &PoleZero{section: biquad.NewSection(biquad.Coefficients{})}
	f.SetBlockZero(pole)
	return f
}

// SetBlockZero configures a zero at DC and a pole just inside the unit circle.
func (f *PoleZero) SetBlockZero(pole float64) {
	f.section.Coefficients = biquad.Coefficients{
		B0: 1,
		B1: -1,
		A1: -dspcore.Clamp(pole, 0, 0.999999),
	}
}

// Tick filters one sample.
func (f *PoleZero) Tick(input float64) float64 {
	f.last = flushSection(f.section, f.section.ProcessSample(input))
	return f.last
}

// LastOut returns the most recent output.
func (f *PoleZero) LastOut() float64 {
	return f.last
}

// SettleTo puts the filter in its steady state for a constant input, so the
// next Tick with that input produces no transient.
func (f *PoleZero) SettleTo(input float64) {
	c := f.section.Coefficients
	y := (c.B0 + c.B1) * input / (1 + c.A1)
	f.section.SetState([2]float64{y - c.B0*input, 0})
	f.last = y
}

// Clear resets the filter state.
func (f *PoleZero) Clear() {
	f.section.Reset()
	f.last = 0
}

// flushSection flushes denormals from a first-order section's output and
// its pending state.
func flushSection(s *biquad.Section, y float64) float64 {
	st := s.State()
	st[0] = dspcore.FlushDenormals(st[0])
	s.SetState(st)
	return dspcore.FlushDenormals(y)
}
