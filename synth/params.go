package synth

import (
	"github.com/cwbudde/algo-cvsynth/cv"
	"github.com/cwbudde/algo-cvsynth/fix"
)

// Params holds all patch parameters: rates, waveform, envelope timing,
// control scaling and the per-input calibrations. Calibration constants are
// configuration inputs measured at bring-up, never computed by the core.
type Params struct {
	SampleRate  int
	ControlRate int

	Waveform Waveform

	// Envelope segment times in milliseconds and the sustain level as a
	// fraction of the attack peak.
	AttackMS     int
	DecayMS      int
	ReleaseMS    int
	SustainRatio float32

	// BaseNote is the MIDI note produced by a 1 V pitch input; each volt
	// above adds an octave.
	BaseNote int

	// GateVelocity is the velocity used for notes triggered by the CV gate.
	GateVelocity int

	// DetuneCVHzPerVolt and DetuneDialHzPerVolt scale the two detune
	// contributions; both are applied additively when both inputs are in
	// use, so the dial acts as an offset on top of the jack.
	DetuneCVHzPerVolt   float32
	DetuneDialHzPerVolt float32

	PitchCal    cv.Calibration
	GateCal     cv.Calibration
	DetuneCal   cv.Calibration
	DialCal     cv.Calibration
	DialAlpha   float32
	PitchAlpha  float32
	DetuneAlpha float32
}

// NewDefaultParams creates default parameters: 10-bit ADC with ideal
// calibration, a sine table, and a snappy general-purpose envelope.
func NewDefaultParams() *Params {
	adc := cv.Calibration{
		Raw1V:           205,
		Raw5V:           1023,
		FullScale:       1023,
		GateSensitivity: 96,
	}
	return &Params{
		SampleRate:          32000,
		ControlRate:         1000,
		Waveform:            WaveSine,
		AttackMS:            8,
		DecayMS:             120,
		ReleaseMS:           160,
		SustainRatio:        0.65,
		BaseNote:            36,
		GateVelocity:        112,
		DetuneCVHzPerVolt:   1.5,
		DetuneDialHzPerVolt: 1.0,
		PitchCal:            adc,
		GateCal:             adc,
		DetuneCal:           adc,
		DialCal:             adc,
		DialAlpha:           0.82,
		PitchAlpha:          0.60,
		DetuneAlpha:         0.82,
	}
}

// envelopeTicks converts a millisecond duration to control ticks, at least 1.
func (p *Params) envelopeTicks(ms int) int {
	ticks := ms * p.ControlRate / 1000
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// The per-role calibration accessors fill in the smoothing coefficient,
// which the JSON schema keeps separate from the raw ADC constants.

func (p *Params) pitchCalibration() cv.Calibration {
	c := p.PitchCal
	c.Alpha = fix.U1616FromFloat(float64(p.PitchAlpha))
	return c
}

func (p *Params) gateCalibration() cv.Calibration {
	c := p.GateCal
	// The gate channel keys off the raw sample; smoothing only serves the
	// display, so it can be slower.
	c.Alpha = fix.U1616FromFloat(float64(p.PitchAlpha))
	return c
}

func (p *Params) detuneCalibration() cv.Calibration {
	c := p.DetuneCal
	c.Alpha = fix.U1616FromFloat(float64(p.DetuneAlpha))
	return c
}

func (p *Params) dialCalibration() cv.Calibration {
	c := p.DialCal
	c.Alpha = fix.U1616FromFloat(float64(p.DialAlpha))
	return c
}
