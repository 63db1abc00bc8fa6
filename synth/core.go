package synth

import (
	"github.com/cwbudde/algo-cvsynth/cv"
	"github.com/cwbudde/algo-cvsynth/fix"
)

// Input indexes passed to the raw source. The assignment mirrors the jack
// and potentiometer order on the front panel.
const (
	InputPitchCV = iota
	InputGateCV
	InputDetuneCV
	InputDetuneDial
	InputUnisonDial
	InputCrushDial
	NumInputs
)

// oneVolt is 1.0 V in 16.16, the bottom of the calibrated CV range.
const oneVolt = fix.U1616(1) << 16

// dialSpan is the full dial range (5.0 V) in 16.16.
const dialSpan = fix.U1616(5) << 16

// Core is the top-level context object: it owns the conditioned control
// inputs and the synthesis engine, and is the single writer of engine
// parameters. The scheduler calls ControlTick at the control rate and
// AudioTick once per output sample; MIDI messages arrive through
// HandleMessage between ticks. Because everything runs on one execution
// context, parameter writes are complete before the next sample is drawn.
type Core struct {
	params *Params
	src    cv.Source
	engine *Engine

	pitch      *cv.Channel
	gate       *cv.Channel
	detune     *cv.Channel
	detuneDial *cv.Dial
	unisonDial *cv.Dial
	crushDial  *cv.Dial

	detuneCVScale   fix.U1616
	detuneDialScale fix.U1616

	// Fine tune from pitch bend, in 7.8 semitones.
	tune fix.S78

	// midiNote is the currently held MIDI note, or -1. While a MIDI note is
	// held the pitch jack is ignored; the jack takes back over on note-off.
	midiNote int

	// MIDI CC contributions. Detune is additive on top of jack and dial,
	// matching how the two panel inputs combine. Unison and crush override
	// their dials until the dial is moved again.
	midiDetune    fix.U1616
	midiUnison    int
	midiUnisonRaw int
	midiCrush     int
	midiCrushRaw  int

	clock uint32
	ticks uint32
}

// NewCore wires the conditioned inputs and the engine together. src supplies
// raw readings for the indexes above.
func NewCore(p *Params, src cv.Source) *Core {
	return &Core{
		params:          p,
		src:             src,
		engine:          NewEngine(p),
		pitch:           cv.NewChannel(p.pitchCalibration()),
		gate:            cv.NewChannel(p.gateCalibration()),
		detune:          cv.NewChannel(p.detuneCalibration()),
		detuneDial:      cv.NewDial(p.dialCalibration()),
		unisonDial:      cv.NewDial(p.dialCalibration()),
		crushDial:       cv.NewDial(p.dialCalibration()),
		detuneCVScale:   fix.U1616FromFloat(float64(p.DetuneCVHzPerVolt)),
		detuneDialScale: fix.U1616FromFloat(float64(p.DetuneDialHzPerVolt)),
		midiNote:        -1,
		midiUnison:      -1,
		midiCrush:       -1,
	}
}

// Engine exposes the synthesis engine for direct parameter writes in tests
// and offline rendering.
func (c *Core) Engine() *Engine { return c.engine }

// ControlTick runs one control-rate update: it conditions all inputs, maps
// them onto engine parameters and advances the envelope timers. It never
// allocates or blocks.
func (c *Core) ControlTick() {
	c.ticks++

	c.pitch.Update(c.src.Read(InputPitchCV))
	c.gate.Update(c.src.Read(InputGateCV))
	c.detune.Update(c.src.Read(InputDetuneCV))
	c.detuneDial.Update(c.src.Read(InputDetuneDial))
	c.unisonDial.Update(c.src.Read(InputUnisonDial))
	c.crushDial.Update(c.src.Read(InputCrushDial))

	if c.gate.WentHigh() {
		c.engine.NoteOn(c.params.GateVelocity)
	}
	if c.gate.WentLow() {
		c.engine.NoteOff()
	}

	if c.midiNote < 0 {
		c.applyPitchCV()
	}
	c.applyDetune()
	c.applyUnison()
	c.applyCrush()

	c.engine.Tick()
}

// AudioTick produces one output sample from current engine state.
func (c *Core) AudioTick() int16 {
	return c.engine.AudioTick()
}

// applyPitchCV maps the smoothed pitch voltage onto a note: BaseNote at 1 V,
// one octave per volt above, plus the pitch-bend fine tune.
func (c *Core) applyPitchCV() {
	volts := c.pitch.Smoothed() - oneVolt
	// 16.16 volts * 12 semitones/volt, rescaled to 7.8 semitones. The CV
	// span is 4 V = 48 semitones, well inside the 7.8 range.
	semis := fix.S78(uint64(volts) * 12 >> 8)
	c.engine.SetNote(c.params.BaseNote, semis+c.tune)
}

// applyDetune combines the detune jack, the detune dial and any MIDI CC
// contribution additively, so dial and CC act as offsets on top of the jack.
func (c *Core) applyDetune() {
	jack := (c.detune.Smoothed() - oneVolt).Mul(c.detuneCVScale)
	dial := c.detuneDial.Smoothed().Mul(c.detuneDialScale)
	c.engine.SetDetune(jack + dial + c.midiDetune)
}

// applyUnison maps the unison dial onto a voice count, unless a MIDI CC
// override is active. Moving the dial past a small jitter margin clears the
// override.
func (c *Core) applyUnison() {
	if c.midiUnison >= 0 {
		if dialMoved(c.unisonDial.Raw(), c.midiUnisonRaw) {
			c.midiUnison = -1
		} else {
			c.engine.SetUnison(c.midiUnison)
			return
		}
	}
	count := int(uint64(c.unisonDial.Smoothed()) * (MaxUnison + 1) / uint64(dialSpan))
	c.engine.SetUnison(count)
}

// applyCrush maps the crush dial onto the 0-255 bit-crush amount, with the
// same MIDI override rule as the unison dial.
func (c *Core) applyCrush() {
	if c.midiCrush >= 0 {
		if dialMoved(c.crushDial.Raw(), c.midiCrushRaw) {
			c.midiCrush = -1
		} else {
			c.engine.SetBitcrunch(c.midiCrush)
			return
		}
	}
	amount := int(uint64(c.crushDial.Smoothed()) * 256 / uint64(dialSpan))
	c.engine.SetBitcrunch(amount)
}

// dialMoved reports whether a raw dial reading has moved past ADC jitter
// since the reference reading was taken.
func dialMoved(raw, ref int) bool {
	d := raw - ref
	if d < 0 {
		d = -d
	}
	return d > 4
}

// Snapshot is the read-only view handed to the display collaborator. It is
// filled from current state and issues no writes into the core.
type Snapshot struct {
	PitchRaw    int
	PitchVolts  fix.U1616
	GateHigh    bool
	DetuneVolts fix.U1616
	Frequency   fix.U1616
	NotePos     fix.U88
	UnisonCount int
	Active      bool
	Clock       uint32
	Ticks       uint32
}

// Snapshot returns the current display view.
func (c *Core) Snapshot() Snapshot {
	return Snapshot{
		PitchRaw:    c.pitch.Raw(),
		PitchVolts:  c.pitch.Smoothed(),
		GateHigh:    c.gate.GateHigh(),
		DetuneVolts: c.detune.Smoothed(),
		Frequency:   c.engine.Frequency(),
		NotePos:     c.engine.NotePos(),
		UnisonCount: c.engine.UnisonCount(),
		Active:      c.engine.Active(),
		Clock:       c.clock,
		Ticks:       c.ticks,
	}
}
