package main

import (
	"math"

	"github.com/cwbudde/algo-cvsynth/fix"
	"github.com/cwbudde/algo-cvsynth/internal/fitcommon"
	"github.com/cwbudde/algo-cvsynth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

// waveforms maps the waveform knob's integer value onto a shape.
var waveforms = []synth.Waveform{
	synth.WaveSine,
	synth.WaveTriangle,
	synth.WaveSaw,
	synth.WaveSquare,
}

// renderKnobs are the per-render settings a candidate carries alongside the
// patch parameters.
type renderKnobs struct {
	DetuneHz float64
	Unison   int
	Bitcrush int
	Velocity int
	GateSec  float64
}

// fitKnobs defines the search space and seeds the initial candidate from the
// base preset.
func fitKnobs(base *synth.Params, baseVelocity int, baseGate float64) ([]knobDef, candidate) {
	defs := []knobDef{
		{Name: "waveform", Min: 0, Max: float64(len(waveforms) - 1), IsInt: true},
		{Name: "attack_ms", Min: 1, Max: 200, IsInt: true},
		{Name: "decay_ms", Min: 5, Max: 500, IsInt: true},
		{Name: "release_ms", Min: 5, Max: 800, IsInt: true},
		{Name: "sustain_ratio", Min: 0.0, Max: 1.0},
		{Name: "detune_hz", Min: 0.0, Max: 8.0},
		{Name: "unison", Min: 0, Max: 8, IsInt: true},
		{Name: "bitcrush", Min: 0, Max: 255, IsInt: true},
		{Name: "render.velocity", Min: 40, Max: 127, IsInt: true},
		{Name: "render.gate_s", Min: 0.05, Max: 2.0},
	}
	vals := []float64{
		float64(waveformIndex(base.Waveform)),
		float64(base.AttackMS),
		float64(base.DecayMS),
		float64(base.ReleaseMS),
		float64(base.SustainRatio),
		0.0,
		0.0,
		0.0,
		float64(baseVelocity),
		baseGate,
	}
	for i, d := range defs {
		vals[i] = fitcommon.Clamp(vals[i], d.Min, d.Max)
		if d.IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

func waveformIndex(w synth.Waveform) int {
	for i, c := range waveforms {
		if c == w {
			return i
		}
	}
	return 0
}

// applyCandidate expands a candidate vector into a patch parameter set and
// the render settings for one evaluation.
func applyCandidate(base *synth.Params, defs []knobDef, c candidate) (*synth.Params, renderKnobs) {
	params := *base
	knobs := renderKnobs{Velocity: 100, GateSec: 1.0}

	for i, d := range defs {
		if i >= len(c.Vals) {
			break
		}
		v := fitcommon.Clamp(c.Vals[i], d.Min, d.Max)
		switch d.Name {
		case "waveform":
			params.Waveform = waveforms[int(math.Round(v))]
		case "attack_ms":
			params.AttackMS = int(math.Round(v))
		case "decay_ms":
			params.DecayMS = int(math.Round(v))
		case "release_ms":
			params.ReleaseMS = int(math.Round(v))
		case "sustain_ratio":
			params.SustainRatio = float32(v)
		case "detune_hz":
			knobs.DetuneHz = v
		case "unison":
			knobs.Unison = int(math.Round(v))
		case "bitcrush":
			knobs.Bitcrush = int(math.Round(v))
		case "render.velocity":
			knobs.Velocity = int(math.Round(v))
		case "render.gate_s":
			knobs.GateSec = v
		}
	}
	return &params, knobs
}

// renderCandidate produces a take at the candidate's settings, driven the
// same way the embedded scheduler drives the engine.
func renderCandidate(params *synth.Params, note int, knobs renderKnobs, totalSec float64) []int16 {
	e := synth.NewEngine(params)
	e.SetNote(note, 0)
	e.SetUnison(knobs.Unison)
	e.SetDetune(fix.U1616FromFloat(knobs.DetuneHz))
	e.SetBitcrunch(knobs.Bitcrush)
	e.NoteOn(knobs.Velocity)

	totalFrames := int(float64(params.SampleRate) * totalSec)
	if totalFrames < 1 {
		totalFrames = 1
	}
	gateFrames := int(float64(params.SampleRate) * knobs.GateSec)
	if gateFrames > totalFrames {
		gateFrames = totalFrames
	}
	controlDiv := fitcommon.MaxInt(1, params.SampleRate/params.ControlRate)

	out := make([]int16, totalFrames)
	released := false
	for i := 0; i < totalFrames; i++ {
		if !released && i >= gateFrames {
			e.NoteOff()
			released = true
		}
		if i%controlDiv == 0 {
			e.Tick()
		}
		out[i] = e.AudioTick()
	}
	return out
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		if i < len(c.Vals) {
			m[d.Name] = c.Vals[i]
		}
	}
	return m
}
