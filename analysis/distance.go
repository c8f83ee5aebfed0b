package analysis

import (
	"math"
)

const (
	envFrame       = 256
	envHop         = 128
	harmonicCount  = 8
	harmonicFloor  = -80.0
	minPitchHz     = 50.0
	maxPitchHz     = 4000.0
	maxSteadyFrame = 1 << 14
)

// Metrics contains distance and similarity measurements between two tones.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int     `json:"reference_frames"`
	CandidateFrames int     `json:"candidate_frames"`
	SteadyFrames    int     `json:"steady_frames"`
	EnvelopeLagMS   float64 `json:"envelope_lag_ms"`

	// Measured flags tell whether the matching distance could be computed;
	// unmeasured distances stay zero and count as maximal in Score.
	PitchMeasured     bool `json:"pitch_measured"`
	EnvelopeMeasured  bool `json:"envelope_measured"`
	HarmonicsMeasured bool `json:"harmonics_measured"`

	ReferenceF0Hz  float64 `json:"reference_f0_hz"`
	CandidateF0Hz  float64 `json:"candidate_f0_hz"`
	PitchCents     float64 `json:"pitch_cents"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	HarmonicRMSEDB float64 `json:"harmonic_rmse_db"`

	ReferenceHarmonicsDB []float64 `json:"reference_harmonics_db,omitempty"`
	CandidateHarmonicsDB []float64 `json:"candidate_harmonics_db,omitempty"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns pitch, envelope and timbre distances between a reference
// and a candidate tone together with a combined score in [0,1] (0 = equal).
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	if lag, d, ok := envelopeDistance(ref, cand); ok {
		m.EnvelopeMeasured = true
		m.EnvelopeLagMS = 1000 * float64(lag*envHop) / float64(sampleRate)
		m.EnvelopeRMSEDB = d
	}

	refSteady := steadySegment(ref)
	candSteady := steadySegment(cand)
	m.SteadyFrames = len(refSteady)
	if len(candSteady) < m.SteadyFrames {
		m.SteadyFrames = len(candSteady)
	}

	hi := maxPitchHz
	if limit := 0.45 * float64(sampleRate); hi > limit {
		hi = limit
	}
	refF0, errR := EstimateFundamental(refSteady, sampleRate, minPitchHz, hi)
	candF0, errC := EstimateFundamental(candSteady, sampleRate, minPitchHz, hi)
	if errR == nil && errC == nil {
		m.PitchMeasured = true
		m.ReferenceF0Hz = refF0
		m.CandidateF0Hz = candF0
		m.PitchCents = 1200 * math.Log2(candF0/refF0)

		rh, errRH := HarmonicProfile(refSteady, sampleRate, m.ReferenceF0Hz, harmonicCount)
		ch, errCH := HarmonicProfile(candSteady, sampleRate, m.CandidateF0Hz, harmonicCount)
		if errRH == nil && errCH == nil {
			if d := harmonicDistance(rh, ch); isFinite(d) {
				m.HarmonicsMeasured = true
				m.ReferenceHarmonicsDB = rh
				m.CandidateHarmonicsDB = ch
				m.HarmonicRMSEDB = d
			}
		}
	}

	pitchNorm := 1.0
	if m.PitchMeasured {
		pitchNorm = clamp01(math.Abs(m.PitchCents) / 100.0)
	}
	envNorm := 1.0
	if m.EnvelopeMeasured {
		envNorm = clamp01(m.EnvelopeRMSEDB / 30.0)
	}
	harmNorm := 1.0
	if m.HarmonicsMeasured {
		harmNorm = clamp01(m.HarmonicRMSEDB / 30.0)
	}
	m.Score = clamp01(0.40*pitchNorm + 0.30*envNorm + 0.30*harmNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// envelopeDistance aligns the RMS envelopes of both tones and returns the
// lag in envelope frames and the RMS difference in dB.
func envelopeDistance(ref, cand []float64) (int, float64, bool) {
	refEnv := rmsEnvelope(ref, envFrame, envHop)
	candEnv := rmsEnvelope(cand, envFrame, envHop)
	if len(refEnv) == 0 || len(candEnv) == 0 {
		return 0, 0, false
	}
	maxLag := len(refEnv) / 4
	if l := len(candEnv) / 4; l < maxLag {
		maxLag = l
	}
	lag := estimateLag(refEnv, candEnv, maxLag, 1)
	refA, candA := alignByLag(refEnv, candEnv, lag)
	n := len(refA)
	if len(candA) < n {
		n = len(candA)
	}
	if n == 0 {
		return lag, 0, false
	}
	refDB := make([]float64, n)
	candDB := make([]float64, n)
	for i := 0; i < n; i++ {
		refDB[i] = linToDB(refA[i])
		candDB[i] = linToDB(candA[i])
	}
	return lag, rmse(refDB, candDB), true
}

// harmonicDistance compares overtone levels relative to each fundamental.
func harmonicDistance(ref, cand []float64) float64 {
	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	if n < 2 {
		return math.NaN()
	}
	var sum float64
	for k := 1; k < n; k++ {
		r := math.Max(ref[k]-ref[0], harmonicFloor)
		c := math.Max(cand[k]-cand[0], harmonicFloor)
		d := r - c
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// steadySegment skips the first quarter of a tone and returns up to
// maxSteadyFrame samples of what follows.
func steadySegment(x []float64) []float64 {
	start := len(x) / 4
	end := start + maxSteadyFrame
	if limit := start + len(x)/2; end > limit {
		end = limit
	}
	if end <= start {
		return nil
	}
	return x[start:end]
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int, step int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	if step < 1 {
		step = 1
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag, step)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := len(a) - ai
	if len(b)-bi < n {
		n = len(b) - bi
	}
	if n <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
