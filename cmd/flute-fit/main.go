package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-flute/analysis"
	"github.com/cwbudde/algo-flute/flute"
	fitcommon "github.com/cwbudde/algo-flute/internal/fitcommon"
	"github.com/cwbudde/algo-flute/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (defaults when empty)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	optimize := flag.String("optimize", "loop,breath,render", "Comma-separated knob groups to optimize: loop, breath, envelope, render")
	jetName := flag.String("jet", "tanh", "Jet function: tanh, cubic or table")
	note := flag.Int("note", -1, "MIDI note to fit (<0 estimates the pitch from the reference)")
	frequency := flag.Float64("frequency", 0, "Frequency in Hz to fit (overrides -note when > 0)")
	amplitude := flag.Float64("amplitude", 0.8, "Initial note amplitude")
	duration := flag.Float64("duration", 0, "Render seconds per evaluation (0 uses the reference length)")
	releaseAfter := flag.Float64("release-after", -1, "Seconds before NoteOff for each evaluation render (<0 uses 80% of the duration)")
	maxDuration := flag.Float64("max-duration", 4.0, "Upper bound for the evaluation render length in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	optSampleRate := flag.Int("opt-sample-rate", 0, "Optimization-loop sample rate (0 uses --sample-rate)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	renderBlockSize := flag.Int("render-block-size", 128, "Audio render block size for candidate evaluation")
	refineTopK := flag.Int("refine-top-k", 3, "After optimization, re-evaluate best N candidates at full settings")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	resumeReport := flag.String("resume-report", "", "Optional report JSON path to resume from (default: current report path)")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if _, err := flute.NewJetShaper(*jetName); err != nil {
		die("invalid --jet: %v", err)
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *checkpointEvery < 1 {
		*checkpointEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	if *optSampleRate <= 0 {
		*optSampleRate = *sampleRate
	}
	if *renderBlockSize < 16 {
		*renderBlockSize = 16
	}
	*refineTopK = fitcommon.MinInt(fitcommon.MaxInt(*refineTopK, 1), *topK)
	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := flute.NewDefaultParams()
	if *presetPath != "" {
		baseParams, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}

	refRaw, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	refOpt, err := fitcommon.ResampleIfNeeded(refRaw, refSR, *optSampleRate)
	if err != nil {
		die("failed to resample optimization reference: %v", err)
	}
	refFull, err := fitcommon.ResampleIfNeeded(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample full reference: %v", err)
	}

	targetHz, err := targetFrequency(*frequency, *note, refFull, *sampleRate)
	if err != nil {
		die("failed to determine target pitch: %v", err)
	}
	renderSec := *duration
	if renderSec <= 0 {
		renderSec = float64(len(refFull)) / float64(*sampleRate)
	}
	if renderSec > *maxDuration {
		renderSec = *maxDuration
	}
	if renderSec < 0.1 {
		die("render duration %.3fs too short", renderSec)
	}
	releaseSec := *releaseAfter
	if releaseSec < 0 {
		releaseSec = 0.8 * renderSec
	}
	fmt.Printf("Fitting %.2f Hz over %.2fs (release at %.2fs), groups=%s, jet=%s\n", targetHz, renderSec, releaseSec, *optimize, *jetName)

	outputs := outputPaths{
		preset:     *outputPreset,
		report:     *reportPath,
		reference:  *referencePath,
		basePreset: *presetPath,
	}
	baseRender := renderKnobs{amplitude: *amplitude}
	defs, initCand := initCandidate(baseParams, baseRender, groups)
	if *resume {
		resumePath := *resumeReport
		if resumePath == "" {
			resumePath = outputs.reportPath()
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	cfg := &optimizationConfig{
		reference:        refOpt,
		finalReference:   refFull,
		baseParams:       baseParams,
		baseRender:       baseRender,
		jet:              *jetName,
		defs:             defs,
		initCandidate:    initCand,
		frequency:        targetHz,
		duration:         renderSec,
		releaseAfter:     releaseSec,
		sampleRate:       *optSampleRate,
		finalSampleRate:  *sampleRate,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		checkpointEvery:  *checkpointEvery,
		renderBlockSize:  *renderBlockSize,
		refineTopK:       *refineTopK,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
		outputs:          outputs,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	variant := strings.ToLower(*mayflyVariant)
	if err := writeOutputs(cfg, variant, *sampleRate, result); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n", result.evals, result.elapsed, result.bestEval.metrics.Score, result.bestEval.metrics.Similarity*100.0, variant)
}

// targetFrequency resolves the fit pitch from the flags or, when neither is
// set, from the reference recording.
func targetFrequency(frequency float64, note int, reference []float64, sampleRate int) (float64, error) {
	if frequency > 0 {
		return frequency, nil
	}
	if note >= 0 {
		return flute.MIDINoteToFrequency(note), nil
	}
	start := len(reference) / 4
	end := fitcommon.MinInt(len(reference), start+1<<15)
	return analysis.EstimateFundamental(reference[start:end], sampleRate, 60, fitcommon.Clamp(0.45*float64(sampleRate), 61, 4000))
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}

	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
