package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-cvsynth/fix"
	"github.com/cwbudde/algo-cvsynth/internal/fitcommon"
	"github.com/cwbudde/algo-cvsynth/preset"
	"github.com/cwbudde/algo-cvsynth/synth"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	gate := flag.Float64("gate", 1.0, "Gate time in seconds before note-off")
	duration := flag.Float64("duration", 2.0, "Total render duration in seconds")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (0 = preset value)")
	waveform := flag.String("waveform", "", "Waveform override (sine, triangle, saw, square)")
	unison := flag.Int("unison", 0, "Unison voice count (0-8)")
	detune := flag.Float64("detune", 0, "Unison detune in Hz")
	bitcrush := flag.Int("bitcrush", 0, "Bit-crush amount (0-255)")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		params = p
	}
	if *sampleRate > 0 {
		params.SampleRate = *sampleRate
	}
	if *waveform != "" {
		params.Waveform = synth.Waveform(*waveform)
	}

	fmt.Printf("Rendering note %d, velocity %d, gate %.2fs of %.2fs at %d Hz...\n",
		*note, *velocity, *gate, *duration, params.SampleRate)

	samples := render(params, renderSpec{
		Note:     *note,
		Velocity: *velocity,
		GateSec:  *gate,
		TotalSec: *duration,
		Unison:   *unison,
		DetuneHz: *detune,
		Bitcrush: *bitcrush,
	})

	if err := fitcommon.WriteMonoWAVInt16(*output, samples, params.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples))
}

type renderSpec struct {
	Note     int
	Velocity int
	GateSec  float64
	TotalSec float64
	Unison   int
	DetuneHz float64
	Bitcrush int
}

// render drives the engine the way the embedded scheduler does: a control
// tick every sampleRate/controlRate samples, one audio tick per sample.
func render(params *synth.Params, spec renderSpec) []int16 {
	e := synth.NewEngine(params)
	e.SetNote(spec.Note, 0)
	e.SetUnison(spec.Unison)
	e.SetDetune(fix.U1616FromFloat(spec.DetuneHz))
	e.SetBitcrunch(spec.Bitcrush)
	e.NoteOn(spec.Velocity)

	totalFrames := int(float64(params.SampleRate) * spec.TotalSec)
	if totalFrames < 1 {
		totalFrames = 1
	}
	gateFrames := int(float64(params.SampleRate) * spec.GateSec)
	if gateFrames > totalFrames {
		gateFrames = totalFrames
	}
	controlDiv := params.SampleRate / params.ControlRate
	if controlDiv < 1 {
		controlDiv = 1
	}

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
