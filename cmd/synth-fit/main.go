package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-cvsynth/internal/fitcommon"
	"github.com/cwbudde/algo-cvsynth/preset"
	"github.com/cwbudde/algo-cvsynth/synth"
)

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path (required)")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "fitted.json", "Path to write the best fitted preset JSON")
	outputWAV := flag.String("output-wav", "", "Optional path to write the best candidate render")
	reportPath := flag.String("report", "", "Report JSON path (default: <output-preset>.report.json)")
	note := flag.Int("note", 60, "MIDI note to fit")
	velocity := flag.Int("velocity", 100, "Initial render velocity")
	gate := flag.Float64("gate", 1.0, "Initial gate time in seconds")
	sampleRate := flag.Int("sample-rate", 0, "Render/analysis sample rate (0 = preset value)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 10000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	workersFlag := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in the report")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *referencePath == "" {
		die("--reference is required")
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
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	workers, err := fitcommon.ParseWorkers(*workersFlag)
	if err != nil {
		die("invalid --workers: %v", err)
	}
	if *reportPath == "" {
		*reportPath = *outputPreset + ".report.json"
	}

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("loading preset %q: %v", *presetPath, err)
		}
		params = p
	}
	if *sampleRate > 0 {
		params.SampleRate = *sampleRate
	}

	ref, refRate, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("reading reference %q: %v", *referencePath, err)
	}
	ref, err = fitcommon.ResampleIfNeeded(ref, refRate, params.SampleRate)
	if err != nil {
		die("resampling reference: %v", err)
	}

	renderSec := float64(len(ref))/float64(params.SampleRate) + 0.25
	renderSec = fitcommon.Clamp(renderSec, 0.5, 10.0)

	defs, initCand := fitKnobs(params, *velocity, *gate)
	cfg := &optimizationConfig{
		reference:        ref,
		baseParams:       params,
		defs:             defs,
		initCand:         initCand,
		note:             *note,
		sampleRate:       params.SampleRate,
		renderSec:        renderSec,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		workers:          workers,
		topK:             *topK,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
	}

	fmt.Printf("Fitting note %d against %s (%d frames at %d Hz, render %.2fs)...\n",
		*note, *referencePath, len(ref), params.SampleRate, renderSec)

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := writeOutputs(cfg, result, *outputPreset, *outputWAV, *reportPath, *referencePath); err != nil {
		die("writing outputs: %v", err)
	}

	fmt.Printf("Done: evals=%d elapsed=%.1fs best score=%.4f similarity=%.2f%%\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
