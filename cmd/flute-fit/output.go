package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-flute/analysis"
	"github.com/cwbudde/algo-flute/preset"
)

type outputPaths struct {
	preset     string
	report     string
	reference  string
	basePreset string
}

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path,omitempty"`
	OutputPreset    string             `json:"output_preset"`
	Jet             string             `json:"jet"`
	SampleRate      int                `json:"sample_rate"`
	FrequencyHz     float64            `json:"frequency_hz"`
	Amplitude       float64            `json:"amplitude"`
	TuningCents     float64            `json:"tuning_cents"`
	DurationSec     float64            `json:"render_seconds"`
	ReleaseAfterSec float64            `json:"release_after_seconds"`
	ElapsedSec      float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
	TopCandidates   []topCandidate     `json:"top_candidates,omitempty"`
}

func (o outputPaths) reportPath() string {
	if o.report != "" {
		return o.report
	}
	return o.preset + ".report.json"
}

func writeOutputs(cfg *optimizationConfig, variant string, sampleRate int, res *optimizationResult) error {
	if err := preset.WriteJSON(cfg.outputs.preset, res.bestEval.params); err != nil {
		return err
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = res.best.Vals[i]
	}
	render := res.bestEval.render
	rep := runReport{
		ReferencePath:   cfg.outputs.reference,
		PresetPath:      cfg.outputs.basePreset,
		OutputPreset:    cfg.outputs.preset,
		Jet:             cfg.jet,
		SampleRate:      sampleRate,
		FrequencyHz:     render.frequency(cfg.frequency),
		Amplitude:       render.amplitude,
		TuningCents:     render.tuningCents,
		DurationSec:     cfg.duration,
		ReleaseAfterSec: cfg.releaseAfter,
		ElapsedSec:      res.elapsed,
		Evaluations:     res.evals,
		MayflyVariant:   variant,
		BestScore:       res.bestEval.metrics.Score,
		BestSimilarity:  res.bestEval.metrics.Similarity,
		BestMetrics:     res.bestEval.metrics,
		BestKnobs:       knobs,
		CheckpointCount: res.checkpoints,
		TopCandidates:   res.top,
	}
	return writeJSON(cfg.outputs.reportPath(), rep)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
