package dsp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

// DelayL is a linearly interpolating fractional delay line.
//
// Tick writes the input first and then reads the sample that lies Delay()
// samples behind it, so a delay of 0 passes the input straight through.
type DelayL struct {
	line     *delay.Line
	maxDelay int
	length   float64
	intDelay int
	frac     float64
	last     float64
}

// NewDelayL creates a delay line able to hold delays up to maxDelay samples.
func NewDelayL(maxDelay int) (*DelayL, error) {
	if maxDelay < 1 {
		return nil, fmt.Errorf("dsp: max delay must be >= 1: %d", maxDelay)
	}
	line, err := delay.New(maxDelay + 2)
	if err != nil {
		return nil, err
	}
	return &DelayL{line: line, maxDelay: maxDelay}, nil
}

// SetDelay sets the delay length in samples, clamped to [0, MaxDelay].
// Buffer contents are kept so the length can change while sound is running.
func (d *DelayL) SetDelay(length float64) {
	if math.IsNaN(length) || length < 0 {
		length = 0
	}
	if length > float64(d.maxDelay) {
		length = float64(d.maxDelay)
	}
	d.length = length
	d.intDelay = int(length)
	d.frac = length - float64(d.intDelay)
}

// Delay returns the current delay length in samples.
func (d *DelayL) Delay() float64 {
	return d.length
}

// MaxDelay returns the largest delay the line can hold.
func (d *DelayL) MaxDelay() int {
	return d.maxDelay
}

// Tick pushes one sample in and returns the delayed output.
func (d *DelayL) Tick(input float64) float64 {
	d.line.Write(input)
	a := d.line.Read(d.intDelay + 1)
	if d.frac == 0 {
		d.last = a
		return a
	}
	b := d.line.Read(d.intDelay + 2)
	d.last = a + d.frac*(b-a)
	return d.last
}

// LastOut returns the most recent output of Tick.
func (d *DelayL) LastOut() float64 {
	return d.last
}

// Clear zeroes the buffer and the last output.
func (d *DelayL) Clear() {
	d.line.Reset()
	d.last = 0
}
