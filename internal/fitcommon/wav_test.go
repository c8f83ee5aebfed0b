package fitcommon

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-flute/dsp"
)

func TestWriteReadMonoWAVRoundTrip(t *testing.T) {
	const sr = 44100
	in := make([]float64, 2048)
	for i := range in {
		in[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	path := filepath.Join(t.TempDir(), "nested", "tone.wav")
	if err := WriteMonoWAV(path, in, sr); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	out, gotSR, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if gotSR != sr {
		t.Fatalf("sample rate = %d, want %d", gotSR, sr)
	}
	if len(out) != len(in) {
		t.Fatalf("frames = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(out[i]-in[i]) > 1e-3 {
			t.Fatalf("sample %d = %g, want %g", i, out[i], in[i])
		}
	}
}

func TestWriteFramesWAVDownmixesOnRead(t *testing.T) {
	frames := dsp.NewFrames(512, 2)
	for i := 0; i < frames.Len(); i++ {
		frames.Set(i, 0, 0.5)
		frames.Set(i, 1, -0.25)
	}
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := WriteFramesWAV(path, frames, 48000); err != nil {
		t.Fatalf("WriteFramesWAV: %v", err)
	}
	out, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	for i, v := range out {
		if math.Abs(v-0.125) > 1e-3 {
			t.Fatalf("sample %d = %g, want 0.125", i, v)
		}
	}
}

func TestWriteFramesWAVRejectsBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteFramesWAV(path, &dsp.Frames{Data: make([]float64, 5), Channels: 2}, 48000); err == nil {
		t.Fatal("expected error for ragged frames")
	}
}

func TestDownmix(t *testing.T) {
	frames := &dsp.Frames{Data: []float64{1, 0, -1, 0.5, 0.5, 0.5}, Channels: 3}
	got := Downmix(frames)
	want := []float64{0, 0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Downmix()[%d] = %g, want %g", i, got[i], want[i])
		}
	}
	if Downmix(nil) != nil {
		t.Fatal("Downmix(nil) should be nil")
	}
}

func TestResampleIfNeededSameRateIsIdentity(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := ResampleIfNeeded(in, 48000, 48000)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatal("expected the input slice back for equal rates")
	}
}

func TestResampleIfNeededChangesLength(t *testing.T) {
	in := make([]float64, 4800)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
	}
	out, err := ResampleIfNeeded(in, 48000, 24000)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	if math.Abs(float64(len(out))-2400) > 64 {
		t.Fatalf("resampled length = %d, want ~2400", len(out))
	}
}
