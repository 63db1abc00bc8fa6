package synth

import "github.com/cwbudde/algo-cvsynth/fix"

// MaxUnison is the number of unison oscillators per engine.
const MaxUnison = 8

// detuneEscalation (~1.05 in 16.16) widens each successive unison pair's
// offset relative to the previous pair, back-loading detune depth onto the
// outer voices.
const detuneEscalation fix.U1616 = 68813

// Engine is the synthesis core: one primary oscillator, eight unison copies
// sharing the primary's wavetable, an ADSR envelope and the per-sample
// mixdown. All setters run at control rate; AudioTick runs once per output
// sample and performs no allocation.
//
// Unison frequencies are not recomputed inside the setters. Setters only
// mark them stale; AudioTick recomputes once at its entry before sampling,
// so a burst of control writes costs one recompute and a half-applied
// parameter set is never sampled.
type Engine struct {
	table      *Wavetable
	notes      *[noteTableLen]fix.U1616
	sampleRate int

	primary Oscillator
	unison  [MaxUnison]Oscillator
	env     Envelope

	notePos     fix.U88
	freq        fix.U1616
	detune      fix.U1616
	unisonCount int
	crushA      uint
	crushB      uint
	unisonStale bool

	// recip[n] is 1/(n+1) in 15.16, indexed by unison count. Precomputed so
	// mixdown averaging is a table lookup and a fast multiply, not a divide.
	recip [MaxUnison + 1]fix.S1516
}

// NewEngine builds an engine from the given parameters. Wavetable and note
// table generation happen here, once; afterwards the engine never allocates.
func NewEngine(p *Params) *Engine {
	e := &Engine{
		table:      NewWavetable(p.Waveform),
		notes:      newNoteTable(),
		sampleRate: p.SampleRate,
		env: newEnvelope(
			p.envelopeTicks(p.AttackMS),
			p.envelopeTicks(p.DecayMS),
			p.envelopeTicks(p.ReleaseMS),
			fix.U1616FromFloat(float64(p.SustainRatio)),
		),
	}
	e.primary.init(e.table, p.SampleRate)
	for i := range e.unison {
		e.unison[i].init(e.table, p.SampleRate)
	}
	for n := range e.recip {
		e.recip[n] = fix.OneS1516 / fix.S1516(n+1)
	}
	return e
}

// SetNote sets the played note as a MIDI note number plus a signed fine-tune
// in 7.8 semitones. The combined 8.8 position is clamped to the note table
// range and converted to a frequency; oscillators are only touched when the
// frequency actually changes.
func (e *Engine) SetNote(note int, tune fix.S78) {
	pos := int32(note)<<8 + int32(tune)
	if pos < 0 {
		pos = 0
	}
	if pos > (noteTableLen-1)<<8 {
		pos = (noteTableLen - 1) << 8
	}
	e.notePos = fix.U88(pos)

	freq := noteToFreq(e.notes, e.notePos)
	if freq == e.freq {
		return
	}
	e.freq = freq
	e.primary.SetFrequency(freq)
	e.unisonStale = true
}

// SetDetune sets the base unison detune offset in 16.16 Hz.
func (e *Engine) SetDetune(amount fix.U1616) {
	if amount == e.detune {
		return
	}
	e.detune = amount
	e.unisonStale = true
}

// SetUnison sets the number of unison oscillators mixed in, clamped to
// [0, 8].
func (e *Engine) SetUnison(count int) {
	if count < 0 {
		count = 0
	}
	if count > MaxUnison {
		count = MaxUnison
	}
	if count == e.unisonCount {
		return
	}
	e.unisonCount = count
	e.unisonStale = true
}

// SetBitcrunch derives the two crush depths from a single 0-255 amount. The
// first depth follows the lower half of the range, the second only the
// excess above the midpoint, so the depths diverge at higher amounts and the
// dual quantization in the mixdown yields intermediate grit levels between
// the coarse single-depth steps.
func (e *Engine) SetBitcrunch(amount int) {
	if amount < 0 {
		amount = 0
	}
	if amount > 255 {
		amount = 255
	}
	a := amount
	if a > 127 {
		a = 127
	}
	b := 0
	if amount > 128 {
		b = amount - 128
	}
	e.crushA = uint(a) >> 4
	e.crushB = uint(b) >> 4
}

// NoteOn triggers the envelope with the given velocity (0-127).
func (e *Engine) NoteOn(velocity int) { e.env.NoteOn(velocity) }

// NoteOff starts the envelope release.
func (e *Engine) NoteOff() { e.env.NoteOff() }

// Active reports whether the engine is producing sound.
func (e *Engine) Active() bool { return e.env.Active() }

// Frequency returns the primary oscillator frequency in 16.16 Hz.
func (e *Engine) Frequency() fix.U1616 { return e.freq }

// NotePos returns the clamped 8.8 note position last set.
func (e *Engine) NotePos() fix.U88 { return e.notePos }

// UnisonCount returns the number of unison voices currently mixed in.
func (e *Engine) UnisonCount() int { return e.unisonCount }

// Tick advances the envelope segment timers by one control tick.
func (e *Engine) Tick() { e.env.Update() }

// recomputeUnison spreads the unison oscillators in symmetric pairs around
// the primary frequency. Pair k's offset is pair k-1's offset scaled by the
// escalation constant; the downward voice clamps at 0 Hz rather than
// wrapping.
func (e *Engine) recomputeUnison() {
	offset := e.detune
	for k := 0; k < MaxUnison/2; k++ {
		e.unison[2*k].SetFrequency(e.freq + offset)
		down := fix.U1616(0)
		if e.freq > offset {
			down = e.freq - offset
		}
		e.unison[2*k+1].SetFrequency(down)
		offset = offset.FastMul(detuneEscalation)
	}
}

// AudioTick produces one signed 16-bit output sample. It recomputes stale
// unison frequencies, mixes the primary plus the first N unison voices,
// averages via the reciprocal table, clamps to the native 8-bit range,
// applies the dual bit crush and scales by the envelope gain.
func (e *Engine) AudioTick() int16 {
	if e.unisonStale {
		e.recomputeUnison()
		e.unisonStale = false
	}

	sum := int32(e.primary.Next())
	for i := 0; i < e.unisonCount; i++ {
		sum += int32(e.unison[i].Next())
	}

	// recip[0] is exactly 1.0, so with no unison voices the fast multiply
	// passes the primary sample through unchanged.
	avg := (fix.S1516(sum) << 16).FastMul(e.recip[e.unisonCount])
	s := int32(avg >> 16)
	if s > 127 {
		s = 127
	}
	if s < -128 {
		s = -128
	}

	crushed := (s>>e.crushA<<e.crushA + s>>e.crushB<<e.crushB) / 2

	gain := e.env.Next()
	out := (fix.S1516(crushed) << 16).FastMul(fix.S1516(gain))
	return int16(out >> 8)
}
