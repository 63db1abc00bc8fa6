package main

import (
	"testing"

	"github.com/cwbudde/algo-cvsynth/synth"
)

func TestFromNormalizedClampsAndRounds(t *testing.T) {
	defs := []knobDef{
		{Name: "a", Min: 0, Max: 10},
		{Name: "b", Min: 5, Max: 500, IsInt: true},
		{Name: "c", Min: -1, Max: 1},
	}

	c := fromNormalized([]float64{1.7, 0.5, -0.3}, defs)
	if c.Vals[0] != 10 {
		t.Fatalf("above-range position not clamped to max: %f", c.Vals[0])
	}
	if c.Vals[1] != 253 {
		t.Fatalf("integer knob not rounded: %f", c.Vals[1])
	}
	if c.Vals[2] != -1 {
		t.Fatalf("below-range position not clamped to min: %f", c.Vals[2])
	}

	// Short position vectors fall back to the knob minimum.
	c = fromNormalized([]float64{0.0}, defs)
	if c.Vals[1] != 5 || c.Vals[2] != -1 {
		t.Fatalf("missing positions did not default to minimum: %+v", c.Vals)
	}
}

func TestApplyCandidateMapsKnobs(t *testing.T) {
	base := synth.NewDefaultParams()
	defs, _ := fitKnobs(base, 100, 1.0)

	vals := map[string]float64{
		"waveform":        2, // saw
		"attack_ms":       12,
		"decay_ms":        80,
		"release_ms":      300,
		"sustain_ratio":   0.25,
		"detune_hz":       3.5,
		"unison":          6,
		"bitcrush":        144,
		"render.velocity": 90,
		"render.gate_s":   0.75,
	}
	c := candidate{Vals: make([]float64, len(defs))}
	for i, d := range defs {
		c.Vals[i] = vals[d.Name]
	}

	params, knobs := applyCandidate(base, defs, c)
	if params.Waveform != synth.WaveSaw {
		t.Fatalf("waveform = %q, want saw", params.Waveform)
	}
	if params.AttackMS != 12 || params.DecayMS != 80 || params.ReleaseMS != 300 {
		t.Fatalf("envelope times not applied: %+v", params)
	}
	if params.SustainRatio != 0.25 {
		t.Fatalf("sustain ratio = %f", params.SustainRatio)
	}
	if knobs.DetuneHz != 3.5 || knobs.Unison != 6 || knobs.Bitcrush != 144 {
		t.Fatalf("render knobs not applied: %+v", knobs)
	}
	if knobs.Velocity != 90 || knobs.GateSec != 0.75 {
		t.Fatalf("velocity/gate not applied: %+v", knobs)
	}
	// The base params must stay untouched.
	if base.AttackMS == 12 && base.DecayMS == 80 {
		t.Fatalf("applyCandidate mutated the base params")
	}
}

func TestRenderCandidateLengthAndBounds(t *testing.T) {
	params := synth.NewDefaultParams()
	knobs := renderKnobs{Velocity: 127, GateSec: 0.1, Unison: 4, DetuneHz: 2}
	samples := renderCandidate(params, 69, knobs, 0.5)

	wantFrames := params.SampleRate / 2
	if len(samples) != wantFrames {
		t.Fatalf("rendered %d frames, want %d", len(samples), wantFrames)
	}
	const maxMagnitude = 127 * 256
	heard := false
	for i, s := range samples {
		if int(s) > maxMagnitude || int(s) < -maxMagnitude {
			t.Fatalf("sample %d out of range: %d", i, s)
		}
		if s != 0 {
			heard = true
		}
	}
	if !heard {
		t.Fatalf("render produced silence")
	}
}

func TestWaveformIndexRoundTrip(t *testing.T) {
	for i, w := range waveforms {
		if got := waveformIndex(w); got != i {
			t.Fatalf("waveformIndex(%q) = %d, want %d", w, got, i)
		}
	}
	if got := waveformIndex(synth.Waveform("bogus")); got != 0 {
		t.Fatalf("unknown waveform index = %d, want 0", got)
	}
}
