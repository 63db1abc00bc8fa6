// Package analysis measures how close a rendered synth take is to a
// reference recording. The combined score drives the offline parameter
// fitting; the individual metrics are reported for inspection.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between two audio
// signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	RefPitchHz      float64 `json:"ref_pitch_hz"`
	CandPitchHz     float64 `json:"cand_pitch_hz"`
	PitchErrorCents float64 `json:"pitch_error_cents"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns objective distance metrics and a combined score in [0,1],
// 0 meaning identical. Signals are trimmed, loudness-normalized and
// cross-correlation aligned before measuring.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		m.Score = 1.0
		return m
	}

	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := sampleRate / 2
	if maxLag > len(ref)-1 {
		maxLag = len(ref) - 1
	}
	if maxLag > len(cand)-1 {
		maxLag = len(cand) - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := minInt(len(refA), len(candA))
	if n < 256 {
		m.Score = 1.0
		return m
	}
	if maxFrames := sampleRate * 12; n > maxFrames {
		n = maxFrames
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, 256, 128)
	candEnv := rmsEnvelope(candA, 256, 128)
	if envN := minInt(len(refEnv), len(candEnv)); envN > 0 {
		var sum float64
		for i := 0; i < envN; i++ {
			d := linToDB(refEnv[i]) - linToDB(candEnv[i])
			sum += d * d
		}
		m.EnvelopeRMSEDB = math.Sqrt(sum / float64(envN))
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)

	m.RefPitchHz = estimateFundamental(refA, sampleRate)
	m.CandPitchHz = estimateFundamental(candA, sampleRate)
	if m.RefPitchHz > 0 && m.CandPitchHz > 0 {
		m.PitchErrorCents = math.Abs(1200 * math.Log2(m.CandPitchHz/m.RefPitchHz))
	}

	// Normalize sub-metrics and combine.
	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	pitchNorm := clamp01(m.PitchErrorCents / 100.0)
	m.Score = clamp01(0.25*timeNorm + 0.20*envNorm + 0.30*specNorm + 0.25*pitchNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := range x {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
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

// estimateLag finds the shift that best aligns candidate to reference via an
// FFT cross-correlation. Positive lag means the reference leads.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	lag, err := estimateLagFFT(ref, cand, maxLag)
	if err != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}
	return lag
}

// estimateLagFFT computes the full cross-correlation as a convolution of the
// reference with the time-reversed candidate and scans the peak inside the
// lag window.
func estimateLagFFT(ref []float64, cand []float64, maxLag int) (int, error) {
	a := make([]float32, len(ref))
	for i, v := range ref {
		a[i] = float32(v)
	}
	b := make([]float32, len(cand))
	for i, v := range cand {
		b[len(cand)-1-i] = float32(v)
	}
	out := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(out, a, b); err != nil {
		return 0, err
	}

	// out[center+lag] is the correlation at that lag.
	center := len(cand) - 1
	bestLag := 0
	best := float32(math.Inf(-1))
	for lag := -maxLag; lag <= maxLag; lag++ {
		k := center + lag
		if k < 0 || k >= len(out) {
			continue
		}
		if out[k] > best {
			best = out[k]
			bestLag = lag
		}
	}
	return bestLag, nil
}

// estimateLagExhaustive is the direct O(n*maxLag) scan, kept as the fallback
// when the FFT path rejects its input and as the reference in tests.
func estimateLagExhaustive(ref []float64, cand []float64, maxLag int) int {
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := minInt(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i++ {
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
	n := minInt(len(a), len(b))
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

// spectralWindowedInputs Hann-windows the leading slice of both signals,
// truncated to a power-of-two length the FFT plan accepts.
func spectralWindowedInputs(a []float64, b []float64) ([]float64, []float64, int) {
	n := minInt(len(a), len(b))
	if n < 512 {
		return nil, nil, 0
	}
	size := 512
	for size*2 <= n && size < 4096 {
		size *= 2
	}
	aw := make([]float64, size)
	bw := make([]float64, size)
	for i := 0; i < size; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
		aw[i] = a[i] * w
		bw[i] = b[i] * w
	}
	return aw, bw, size / 2
}

// spectralRMSEDB measures the RMS difference of the two magnitude spectra in
// dB, bins 1..n/2-1.
func spectralRMSEDB(a []float64, b []float64) float64 {
	aw, bw, bins := spectralWindowedInputs(a, b)
	if bins < 2 {
		return 0
	}
	plan, err := algofft.NewPlanReal64(len(aw))
	if err != nil {
		return spectralRMSEDBNaiveWindowed(aw, bw, bins)
	}
	specA := make([]complex128, len(aw)/2+1)
	specB := make([]complex128, len(bw)/2+1)
	plan.Forward(specA, aw)
	plan.Forward(specB, bw)

	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(cmplxAbs(specA[k])) - linToDB(cmplxAbs(specB[k]))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

// spectralRMSEDBNaiveWindowed evaluates each bin directly. Quadratic; kept
// as the fallback and for benchmarking the FFT path against.
func spectralRMSEDBNaiveWindowed(aw []float64, bw []float64, bins int) float64 {
	if bins < 2 {
		return 0
	}
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(dftBinMag(aw, k)) - linToDB(dftBinMag(bw, k))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func dftBinMag(x []float64, bin int) float64 {
	n := len(x)
	var re, im float64
	for i := 0; i < n; i++ {
		phi := -2.0 * math.Pi * float64(bin*i) / float64(n)
		re += x[i] * math.Cos(phi)
		im += x[i] * math.Sin(phi)
	}
	return math.Hypot(re, im)
}

// estimateFundamental picks the strongest equal-temperament pitch in the
// opening block by scanning Goertzel powers across the MIDI note range.
func estimateFundamental(x []float64, sampleRate int) float64 {
	block := x
	if len(block) > 4096 {
		block = block[:4096]
	}
	if len(block) < 512 {
		return 0
	}

	freqs := make([]float64, 0, 96)
	for note := 24; note <= 119; note++ {
		f := 440.0 * math.Pow(2, float64(note-69)/12.0)
		if f >= float64(sampleRate)/2 {
			break
		}
		freqs = append(freqs, f)
	}
	mg, err := spectrum.NewMultiGoertzel(freqs, float64(sampleRate))
	if err != nil {
		return 0
	}
	mg.ProcessBlock(block)

	powers := mg.Powers()
	best, bestIdx := 0.0, -1
	for i, p := range powers {
		if p > best {
			best = p
			bestIdx = i
		}
	}
	if bestIdx < 0 || best <= 0 {
		return 0
	}
	return freqs[bestIdx]
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
