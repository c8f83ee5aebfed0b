package fitcommon

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/algo-flute/dsp"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAVMono decodes a WAV file and averages its channels.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ResampleIfNeeded converts in from fromRate to toRate.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", fromRate, toRate, err)
	}
	return r.Process(in), nil
}

// WriteFramesWAV writes an interleaved buffer as 16-bit PCM.
func WriteFramesWAV(path string, frames *dsp.Frames, sampleRate int) error {
	if err := frames.Validate(); err != nil {
		return err
	}
	data := make([]float32, len(frames.Data))
	for i, v := range frames.Data {
		data[i] = float32(v)
	}
	return writeWAV(path, data, frames.Channels, sampleRate)
}

// WriteMonoWAV writes one channel as 16-bit PCM.
func WriteMonoWAV(path string, data []float64, sampleRate int) error {
	return WriteFramesWAV(path, &dsp.Frames{Data: data, Channels: 1}, sampleRate)
}

func writeWAV(path string, samples []float32, channels int, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

// Downmix averages all channels of frames into one.
func Downmix(frames *dsp.Frames) []float64 {
	if frames == nil || frames.Channels < 1 {
		return nil
	}
	n := frames.Len()
	out := make([]float64, n)
	inv := 1.0 / float64(frames.Channels)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < frames.Channels; c++ {
			sum += frames.At(i, c)
		}
		out[i] = sum * inv
	}
	return out
}
