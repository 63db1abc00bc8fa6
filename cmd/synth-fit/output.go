package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-cvsynth/analysis"
	"github.com/cwbudde/algo-cvsynth/internal/fitcommon"
	"github.com/cwbudde/algo-cvsynth/preset"
)

type fitReport struct {
	ReferencePath  string             `json:"reference_path"`
	Note           int                `json:"note"`
	SampleRate     int                `json:"sample_rate"`
	Variant        string             `json:"variant"`
	Evals          int                `json:"evals"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	Top            []topCandidate     `json:"top"`
}

// writeOutputs persists the fitted preset, the report and optionally the
// best candidate's render.
func writeOutputs(cfg *optimizationConfig, res *optimizationResult, presetPath, wavPath, reportPath, referencePath string) error {
	params, knobs := applyCandidate(cfg.baseParams, cfg.defs, res.best)

	file := preset.File{
		SampleRate:   intPtr(params.SampleRate),
		ControlRate:  intPtr(params.ControlRate),
		Waveform:     string(params.Waveform),
		AttackMS:     intPtr(params.AttackMS),
		DecayMS:      intPtr(params.DecayMS),
		ReleaseMS:    intPtr(params.ReleaseMS),
		SustainRatio: f32Ptr(params.SustainRatio),
		BaseNote:     intPtr(params.BaseNote),
		GateVelocity: intPtr(params.GateVelocity),
	}
	if err := writeJSON(presetPath, &file); err != nil {
		return fmt.Errorf("preset: %w", err)
	}

	report := fitReport{
		ReferencePath:  referencePath,
		Note:           cfg.note,
		SampleRate:     cfg.sampleRate,
		Variant:        cfg.mayflyVariant,
		Evals:          res.evals,
		ElapsedSeconds: res.elapsed,
		BestMetrics:    res.bestMetrics,
		BestKnobs:      knobMap(cfg.defs, res.best),
		Top:            res.top,
	}
	if err := writeJSON(reportPath, &report); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if wavPath != "" {
		samples := renderCandidate(params, cfg.note, knobs, cfg.renderSec)
		if err := fitcommon.WriteMonoWAVInt16(wavPath, samples, params.SampleRate); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func intPtr(v int) *int         { return &v }
func f32Ptr(v float32) *float32 { return &v }
