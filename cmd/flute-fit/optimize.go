package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-flute/analysis"
	"github.com/cwbudde/algo-flute/flute"
	fitcommon "github.com/cwbudde/algo-flute/internal/fitcommon"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	finalReference   []float64
	baseParams       *flute.Params
	baseRender       renderKnobs
	jet              string
	defs             []knobDef
	initCandidate    candidate
	frequency        float64
	duration         float64
	releaseAfter     float64
	sampleRate       int
	finalSampleRate  int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	checkpointEvery  int
	renderBlockSize  int
	refineTopK       int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
	outputs          outputPaths
}

type evalSettings struct {
	reference  []float64
	sampleRate int
}

type optimizationEval struct {
	metrics analysis.Metrics
	params  *flute.Params
	render  renderKnobs
}

type optimizationResult struct {
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	checkpoints int
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)
	if _, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), 1); err != nil {
		return nil, err
	}
	optSettings := evalSettings{reference: cfg.reference, sampleRate: cfg.sampleRate}
	finalSettings := evalSettings{reference: cfg.finalReference, sampleRate: cfg.finalSampleRate}

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best, optSettings)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", initialEval.metrics.Score, initialEval.metrics.Similarity*100.0)

	state := &optimizationState{
		best:     best,
		bestEval: cloneOptimizationEval(initialEval),
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex
	var latestPersistedImprove int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				budget := fitcommon.MinInt(cfg.mayflyRoundEvals, remaining)
				iters := fitcommon.MaxInt(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					evalRes, err := evaluateCandidate(cfg, cand, optSettings)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					improved := false
					checkpointDue := false
					var improveNum int64
					var snapshot optimizationResult
					bestScore := 0.0

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), evalRes.metrics, cfg.defs, cand)
					if evalRes.metrics.Score < state.bestEval.metrics.Score {
						state.best = cloneCandidate(cand)
						state.bestEval = cloneOptimizationEval(evalRes)
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
						checkpointDue = cfg.checkpointEvery > 0 && improveNum%int64(cfg.checkpointEvery) == 0
						snapshot = optimizationResult{
							best:     cloneCandidate(state.best),
							bestEval: cloneOptimizationEval(state.bestEval),
							top:      cloneTopCandidates(state.top),
						}
					}
					bestScore = state.bestEval.metrics.Score
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improveNum, evalNum, snapshot.bestEval.metrics.Score, snapshot.bestEval.metrics.Similarity*100.0)
						outputMu.Lock()
						if improveNum > latestPersistedImprove && checkpointDue {
							latestPersistedImprove = improveNum
							state.mu.Lock()
							snapshot.checkpoints = state.checkpoints + 1
							state.mu.Unlock()
							snapshot.evals = int(atomic.LoadInt64(&evals))
							snapshot.elapsed = time.Since(start).Seconds()
							if err := writeOutputs(cfg, variant, optSettings.sampleRate, &snapshot); err != nil {
								fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
							} else {
								state.mu.Lock()
								if snapshot.checkpoints > state.checkpoints {
									state.checkpoints = snapshot.checkpoints
								}
								state.mu.Unlock()
							}
						}
						outputMu.Unlock()
					}

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return evalRes.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	result := &optimizationResult{
		best:        cloneCandidate(state.best),
		bestEval:    cloneOptimizationEval(state.bestEval),
		top:         cloneTopCandidates(state.top),
		checkpoints: state.checkpoints,
	}
	state.mu.Unlock()

	refineTopCandidates(cfg, result, finalSettings)
	result.evals = int(atomic.LoadInt64(&evals))
	result.elapsed = time.Since(start).Seconds()
	return result, nil
}

// refineTopCandidates re-scores the best distinct candidates at the final
// sample rate and keeps the winner.
func refineTopCandidates(cfg *optimizationConfig, result *optimizationResult, settings evalSettings) {
	refineTopK := fitcommon.MaxInt(1, cfg.refineTopK)
	seen := make(map[string]struct{}, refineTopK)
	candidates := make([]candidate, 0, refineTopK)
	addCandidate := func(c candidate) {
		if len(candidates) >= refineTopK {
			return
		}
		key := candidateKey(c)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, c)
	}
	addCandidate(result.best)
	for _, entry := range result.top {
		addCandidate(candidateFromTop(entry, cfg.defs, result.best))
	}

	refinedTop := make([]topCandidate, 0, cfg.topK)
	var refinedBest candidate
	var refinedEval optimizationEval
	hasRefinedBest := false
	for i, cand := range candidates {
		evalRes, err := evaluateCandidate(cfg, cand, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "refine eval %d failed: %v\n", i+1, err)
			continue
		}
		refinedTop = updateTopCandidates(refinedTop, cfg.topK, i+1, evalRes.metrics, cfg.defs, cand)
		if !hasRefinedBest || evalRes.metrics.Score < refinedEval.metrics.Score {
			refinedBest = cloneCandidate(cand)
			refinedEval = cloneOptimizationEval(evalRes)
			hasRefinedBest = true
		}
	}
	if hasRefinedBest {
		result.best = refinedBest
		result.bestEval = refinedEval
		result.top = refinedTop
	}
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate, settings evalSettings) (optimizationEval, error) {
	params, render := applyCandidate(cfg.baseParams, cfg.baseRender, cfg.defs, cand)
	jet, err := flute.NewJetShaper(cfg.jet)
	if err != nil {
		return optimizationEval{}, err
	}

	rc := fitcommon.DefaultRenderConfig()
	rc.SampleRate = settings.sampleRate
	rc.BlockSize = cfg.renderBlockSize
	rc.Frequency = render.frequency(cfg.frequency)
	rc.Amplitude = render.amplitude
	rc.Duration = cfg.duration
	rc.ReleaseAfter = cfg.releaseAfter

	frames, _, err := fitcommon.RenderParams(params, rc, flute.WithJet(jet))
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics: analysis.Compare(settings.reference, frames.Data, settings.sampleRate),
		params:  params,
		render:  render,
	}, nil
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func cloneOptimizationEval(in optimizationEval) optimizationEval {
	out := in
	out.params = in.params.Clone()
	out.metrics.ReferenceHarmonicsDB = append([]float64(nil), in.metrics.ReferenceHarmonicsDB...)
	out.metrics.CandidateHarmonicsDB = append([]float64(nil), in.metrics.CandidateHarmonicsDB...)
	return out
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i := range in {
		entry := in[i]
		entry.Knobs = make(map[string]float64, len(in[i].Knobs))
		for k, v := range in[i].Knobs {
			entry.Knobs[k] = v
		}
		out[i] = entry
	}
	return out
}

func candidateFromTop(entry topCandidate, defs []knobDef, fallback candidate) candidate {
	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	for i, d := range defs {
		if v, ok := entry.Knobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
		}
	}
	return candidate{Vals: vals}
}

func candidateKey(c candidate) string {
	var b strings.Builder
	for i, v := range c.Vals {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return b.String()
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = fitcommon.MaxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestEval.metrics.Score
	state.mu.Unlock()
	return score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}
