// Package preset loads patch parameter files. A preset is a partial JSON
// document applied on top of the default parameters, so files only need to
// name what they change.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cwbudde/algo-cvsynth/cv"
	"github.com/cwbudde/algo-cvsynth/synth"
)

// File is the JSON schema for synth presets.
type File struct {
	SampleRate   *int     `json:"sample_rate"`
	ControlRate  *int     `json:"control_rate"`
	Waveform     string   `json:"waveform"`
	AttackMS     *int     `json:"attack_ms"`
	DecayMS      *int     `json:"decay_ms"`
	ReleaseMS    *int     `json:"release_ms"`
	SustainRatio *float32 `json:"sustain_ratio"`
	BaseNote     *int     `json:"base_note"`
	GateVelocity *int     `json:"gate_velocity"`

	DetuneCVHzPerVolt   *float32 `json:"detune_cv_hz_per_volt"`
	DetuneDialHzPerVolt *float32 `json:"detune_dial_hz_per_volt"`

	PitchAlpha  *float32 `json:"pitch_alpha"`
	DetuneAlpha *float32 `json:"detune_alpha"`
	DialAlpha   *float32 `json:"dial_alpha"`

	// Inputs holds per-channel calibration overrides, keyed by channel name
	// (pitch, gate, detune, dial).
	Inputs map[string]InputSetting `json:"inputs"`
}

// InputSetting is a partial calibration override for one input channel.
type InputSetting struct {
	Raw1V           *int `json:"raw_1v"`
	Raw5V           *int `json:"raw_5v"`
	FullScale       *int `json:"full_scale"`
	GateSensitivity *int `json:"gate_sensitivity"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 {
			return fmt.Errorf("sample_rate must be >= 8000")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.ControlRate != nil {
		if *f.ControlRate < 1 {
			return fmt.Errorf("control_rate must be >= 1")
		}
		dst.ControlRate = *f.ControlRate
	}
	if f.Waveform != "" {
		w := synth.Waveform(f.Waveform)
		switch w {
		case synth.WaveSine, synth.WaveTriangle, synth.WaveSaw, synth.WaveSquare:
			dst.Waveform = w
		default:
			return fmt.Errorf("unknown waveform %q", f.Waveform)
		}
	}
	if f.AttackMS != nil {
		if *f.AttackMS < 0 {
			return fmt.Errorf("attack_ms must be >= 0")
		}
		dst.AttackMS = *f.AttackMS
	}
	if f.DecayMS != nil {
		if *f.DecayMS < 0 {
			return fmt.Errorf("decay_ms must be >= 0")
		}
		dst.DecayMS = *f.DecayMS
	}
	if f.ReleaseMS != nil {
		if *f.ReleaseMS < 0 {
			return fmt.Errorf("release_ms must be >= 0")
		}
		dst.ReleaseMS = *f.ReleaseMS
	}
	if f.SustainRatio != nil {
		if *f.SustainRatio < 0 || *f.SustainRatio > 1 {
			return fmt.Errorf("sustain_ratio must be in [0,1]")
		}
		dst.SustainRatio = *f.SustainRatio
	}
	if f.BaseNote != nil {
		if *f.BaseNote < 0 || *f.BaseNote > 127 {
			return fmt.Errorf("base_note must be in 0..127")
		}
		dst.BaseNote = *f.BaseNote
	}
	if f.GateVelocity != nil {
		if *f.GateVelocity < 1 || *f.GateVelocity > 127 {
			return fmt.Errorf("gate_velocity must be in 1..127")
		}
		dst.GateVelocity = *f.GateVelocity
	}
	if f.DetuneCVHzPerVolt != nil {
		if *f.DetuneCVHzPerVolt < 0 {
			return fmt.Errorf("detune_cv_hz_per_volt must be >= 0")
		}
		dst.DetuneCVHzPerVolt = *f.DetuneCVHzPerVolt
	}
	if f.DetuneDialHzPerVolt != nil {
		if *f.DetuneDialHzPerVolt < 0 {
			return fmt.Errorf("detune_dial_hz_per_volt must be >= 0")
		}
		dst.DetuneDialHzPerVolt = *f.DetuneDialHzPerVolt
	}
	if err := applyAlpha(&dst.PitchAlpha, f.PitchAlpha, "pitch_alpha"); err != nil {
		return err
	}
	if err := applyAlpha(&dst.DetuneAlpha, f.DetuneAlpha, "detune_alpha"); err != nil {
		return err
	}
	if err := applyAlpha(&dst.DialAlpha, f.DialAlpha, "dial_alpha"); err != nil {
		return err
	}

	if len(f.Inputs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f.Inputs))
	for k := range f.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var cal *cv.Calibration
		switch k {
		case "pitch":
			cal = &dst.PitchCal
		case "gate":
			cal = &dst.GateCal
		case "detune":
			cal = &dst.DetuneCal
		case "dial":
			cal = &dst.DialCal
		default:
			return fmt.Errorf("unknown input %q (expected pitch, gate, detune or dial)", k)
		}
		if err := applyCalibration(cal, f.Inputs[k], k); err != nil {
			return err
		}
	}
	return nil
}

func applyAlpha(dst *float32, v *float32, name string) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v >= 1 {
		return fmt.Errorf("%s must be in [0,1)", name)
	}
	*dst = *v
	return nil
}

func applyCalibration(dst *cv.Calibration, s InputSetting, name string) error {
	if s.Raw1V != nil {
		if *s.Raw1V < 0 {
			return fmt.Errorf("inputs[%s].raw_1v must be >= 0", name)
		}
		dst.Raw1V = *s.Raw1V
	}
	if s.Raw5V != nil {
		dst.Raw5V = *s.Raw5V
	}
	if dst.Raw5V <= dst.Raw1V {
		return fmt.Errorf("inputs[%s]: raw_5v must be above raw_1v", name)
	}
	if s.FullScale != nil {
		if *s.FullScale < 1 {
			return fmt.Errorf("inputs[%s].full_scale must be >= 1", name)
		}
		dst.FullScale = *s.FullScale
	}
	if s.GateSensitivity != nil {
		if *s.GateSensitivity < 0 || *s.GateSensitivity*2 >= dst.FullScale {
			return fmt.Errorf("inputs[%s].gate_sensitivity must leave the thresholds apart", name)
		}
		dst.GateSensitivity = *s.GateSensitivity
	}
	return nil
}
