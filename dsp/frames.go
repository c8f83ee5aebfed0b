package dsp

import "fmt"

// Frames is an interleaved multi-channel sample buffer.
type Frames struct {
	Data     []float64
	Channels int
}

// NewFrames allocates a zeroed buffer of frames x channels samples.
func NewFrames(frames, channels int) *Frames {
	if frames < 0 {
		frames = 0
	}
	if channels < 1 {
		channels = 1
	}
	return &Frames{
		Data:     make([]float64, frames*channels),
		Channels: channels,
	}
}

// Len returns the number of frames.
func (f *Frames) Len() int {
	if f.Channels < 1 {
		return 0
	}
	return len(f.Data) / f.Channels
}

// At returns the sample of channel ch in frame i.
func (f *Frames) At(i, ch int) float64 {
	return f.Data[i*f.Channels+ch]
}

// Set stores v as the sample of channel ch in frame i.
func (f *Frames) Set(i, ch int, v float64) {
	f.Data[i*f.Channels+ch] = v
}

// Channel copies one channel out of the buffer.
func (f *Frames) Channel(ch int) []float64 {
	n := f.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = f.Data[i*f.Channels+ch]
	}
	return out
}

// Validate reports whether the buffer shape is consistent.
func (f *Frames) Validate() error {
	if f == nil {
		return fmt.Errorf("nil frames")
	}
	if f.Channels < 1 {
		return fmt.Errorf("channel count must be >= 1: %d", f.Channels)
	}
	if len(f.Data)%f.Channels != 0 {
		return fmt.Errorf("data length %d is not a multiple of %d channels", len(f.Data), f.Channels)
	}
	return nil
}
