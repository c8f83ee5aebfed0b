package flute

import "github.com/cwbudde/algo-flute/dsp"

// Instrument is the lifecycle shared by sample-at-a-time instruments.
type Instrument interface {
	NoteOn(frequency, amplitude float64)
	NoteOff(amplitude float64)
	ControlChange(number int, value float64) error
	Tick() float64
	TickFrames(frames *dsp.Frames, channel int) error
	Clear()
}

var _ Instrument = (*Flute)(nil)
