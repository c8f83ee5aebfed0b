package main

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-flute/flute"
	fitcommon "github.com/cwbudde/algo-flute/internal/fitcommon"
)

func TestParseOptimizeGroups(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]bool
		wantErr bool
	}{
		{name: "single group", input: "loop", want: map[string]bool{"loop": true}},
		{name: "all groups", input: "loop,breath,envelope,render", want: map[string]bool{"loop": true, "breath": true, "envelope": true, "render": true}},
		{name: "with whitespace", input: " loop , render ", want: map[string]bool{"loop": true, "render": true}},
		{name: "invalid group", input: "loop,bogus", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "  ,  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptimizeGroups(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOptimizeGroups(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOptimizeGroups(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseOptimizeGroups(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for k := range tt.want {
				if !got[k] {
					t.Fatalf("parseOptimizeGroups(%q) missing %q", tt.input, k)
				}
			}
		})
	}
}

func TestInitCandidateKnobCounts(t *testing.T) {
	base := flute.NewDefaultParams()
	render := renderKnobs{amplitude: 0.8}
	tests := []struct {
		groups string
		want   int
	}{
		{"loop", 3},
		{"breath", 3},
		{"envelope", 3},
		{"render", 3},
		{"loop,breath,envelope,render", 12},
	}
	for _, tt := range tests {
		groups, err := parseOptimizeGroups(tt.groups)
		if err != nil {
			t.Fatalf("parseOptimizeGroups: %v", err)
		}
		defs, cand := initCandidate(base, render, groups)
		if len(defs) != tt.want || len(cand.Vals) != tt.want {
			t.Fatalf("%s: defs=%d vals=%d, want %d", tt.groups, len(defs), len(cand.Vals), tt.want)
		}
		for i, d := range defs {
			if cand.Vals[i] < d.Min || cand.Vals[i] > d.Max {
				t.Fatalf("%s: %s=%g outside [%g,%g]", tt.groups, d.Name, cand.Vals[i], d.Min, d.Max)
			}
		}
	}
}

func TestApplyCandidateRoundTripsDefaults(t *testing.T) {
	base := flute.NewDefaultParams()
	render := renderKnobs{amplitude: 0.8}
	groups, _ := parseOptimizeGroups("loop,breath,envelope,render")
	defs, cand := initCandidate(base, render, groups)

	p, r := applyCandidate(base, render, defs, cand)
	if *p != *base {
		t.Fatalf("params changed by identity candidate:\n got %+v\nwant %+v", *p, *base)
	}
	if r != render {
		t.Fatalf("render knobs = %+v, want %+v", r, render)
	}
	if p == base {
		t.Fatal("applyCandidate must not alias the base params")
	}
}

func TestApplyCandidateSetsKnobs(t *testing.T) {
	base := flute.NewDefaultParams()
	groups, _ := parseOptimizeGroups("loop,render")
	defs, cand := initCandidate(base, renderKnobs{amplitude: 0.8}, groups)
	for i, d := range defs {
		switch d.Name {
		case "jet_ratio":
			cand.Vals[i] = 0.4
		case "end_reflection":
			cand.Vals[i] = -0.3
		case "render.tuning_cents":
			cand.Vals[i] = 1200
		}
	}
	p, r := applyCandidate(base, renderKnobs{amplitude: 0.8}, defs, cand)
	if p.JetRatio != 0.4 || p.EndReflection != -0.3 {
		t.Fatalf("params = %+v", *p)
	}
	if got := r.frequency(220); math.Abs(got-440) > 1e-9 {
		t.Fatalf("tuned frequency = %g, want 440", got)
	}
}

func TestFromNormalizedMapsBounds(t *testing.T) {
	defs := []knobDef{
		{Name: "a", Min: -1, Max: 1},
		{Name: "b", Min: 10, Max: 20},
		{Name: "c", Min: 0, Max: 4},
	}
	got := fromNormalized([]float64{0, 1.5, 0.25}, defs)
	want := []float64{-1, 20, 1}
	for i := range want {
		if math.Abs(got.Vals[i]-want[i]) > 1e-12 {
			t.Fatalf("fromNormalized()[%d] = %g, want %g", i, got.Vals[i], want[i])
		}
	}
	short := fromNormalized(nil, defs)
	if short.Vals[1] != 10 {
		t.Fatalf("missing position should map to Min, got %g", short.Vals[1])
	}
}

func TestEveryKnobChangesRenderedOutput(t *testing.T) {
	base := flute.NewDefaultParams()
	baseRender := renderKnobs{amplitude: 0.8}
	groups, _ := parseOptimizeGroups("loop,breath,envelope,render")
	defs, initCand := initCandidate(base, baseRender, groups)

	renderCand := func(c candidate) []float64 {
		t.Helper()
		p, r := applyCandidate(base, baseRender, defs, c)
		cfg := fitcommon.DefaultRenderConfig()
		cfg.SampleRate = 8000
		cfg.Frequency = r.frequency(440)
		cfg.Amplitude = r.amplitude
		cfg.Duration = 0.3
		cfg.ReleaseAfter = 0.2
		frames, _, err := fitcommon.RenderParams(p, cfg)
		if err != nil {
			t.Fatalf("RenderParams: %v", err)
		}
		return frames.Data
	}
	ref := renderCand(initCand)

	for i, d := range defs {
		moved := candidate{Vals: append([]float64(nil), initCand.Vals...)}
		v := d.Min + 0.5*(d.Max-d.Min)
		if math.Abs(v-initCand.Vals[i]) < 1e-9 {
			v = d.Min + 0.25*(d.Max-d.Min)
		}
		moved.Vals[i] = v

		got := renderCand(moved)
		if len(got) != len(ref) {
			continue
		}
		same := true
		for j := range got {
			if got[j] != ref[j] {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("knob %s=%g left the rendered output unchanged", d.Name, v)
		}
	}
}
