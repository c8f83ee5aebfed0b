package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-flute/flute"
	fitcommon "github.com/cwbudde/algo-flute/internal/fitcommon"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

// renderKnobs are the per-render settings a candidate may move alongside the
// preset.
type renderKnobs struct {
	amplitude   float64
	tuningCents float64
}

var optimizeGroups = []string{"loop", "breath", "envelope", "render"}

// parseOptimizeGroups parses a comma-separated string of group names.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	valid := make(map[string]bool, len(optimizeGroups))
	for _, g := range optimizeGroups {
		valid[g] = true
	}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(optimizeGroups, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *flute.Params, baseRender renderKnobs, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 16)
	vals := make([]float64, 0, 16)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["loop"] {
		addKnob(knobDef{Name: "jet_reflection", Min: -0.95, Max: 0.95}, base.JetReflection)
		addKnob(knobDef{Name: "end_reflection", Min: -0.95, Max: 0.95}, base.EndReflection)
		addKnob(knobDef{Name: "jet_ratio", Min: 0.08, Max: 0.56}, base.JetRatio)
	}
	if groups["breath"] {
		addKnob(knobDef{Name: "noise_gain", Min: 0.0, Max: 0.4}, base.NoiseGain)
		addKnob(knobDef{Name: "vibrato_gain", Min: 0.0, Max: 0.4}, base.VibratoGain)
		addKnob(knobDef{Name: "vibrato_frequency", Min: 0.5, Max: 12.0}, base.VibratoFrequency)
	}
	if groups["envelope"] {
		addKnob(knobDef{Name: "envelope.decay", Min: 0.001, Max: 0.25}, base.DecayTime)
		addKnob(knobDef{Name: "envelope.sustain", Min: 0.3, Max: 1.0}, base.SustainLevel)
		addKnob(knobDef{Name: "envelope.note_off_rate", Min: 0.0001, Max: 0.02}, base.NoteOffRate)
	}
	if groups["render"] {
		addKnob(knobDef{Name: "output_gain", Min: 0.2, Max: 2.0}, base.OutputGain)
		addKnob(knobDef{Name: "render.amplitude", Min: 0.3, Max: 1.0}, baseRender.amplitude)
		addKnob(knobDef{Name: "render.tuning_cents", Min: -60, Max: 60}, baseRender.tuningCents)
	}

	for i := range vals {
		vals[i] = fitcommon.Clamp(vals[i], defs[i].Min, defs[i].Max)
	}
	return defs, candidate{Vals: vals}
}

func applyCandidate(base *flute.Params, baseRender renderKnobs, defs []knobDef, c candidate) (*flute.Params, renderKnobs) {
	params := base.Clone()
	render := baseRender

	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "jet_reflection":
			params.JetReflection = v
		case "end_reflection":
			params.EndReflection = v
		case "jet_ratio":
			params.JetRatio = v
		case "noise_gain":
			params.NoiseGain = v
		case "vibrato_gain":
			params.VibratoGain = v
		case "vibrato_frequency":
			params.VibratoFrequency = v
		case "envelope.decay":
			params.DecayTime = v
		case "envelope.sustain":
			params.SustainLevel = v
		case "envelope.note_off_rate":
			params.NoteOffRate = v
		case "output_gain":
			params.OutputGain = v
		case "render.amplitude":
			render.amplitude = v
		case "render.tuning_cents":
			render.tuningCents = v
		}
	}
	return params, render
}

func (r renderKnobs) frequency(base float64) float64 {
	return base * math.Pow(2, r.tuningCents/1200.0)
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return candidate{Vals: vals}
}
