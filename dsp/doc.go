// Package dsp holds the small per-sample building blocks the flute voice is
// assembled from: an interpolating delay line, one-pole and pole-zero
// filters, an ADSR envelope, table noise and sine sources, and an
// interleaved multi-channel frame buffer.
//
// All Tick methods are allocation free.
package dsp
