package synth

import "github.com/cwbudde/algo-cvsynth/fix"

// MessageKind enumerates the decoded MIDI events the core reacts to. Byte
// framing and running status live in the transport collaborator; the core
// only sees decoded messages.
type MessageKind int

const (
	MsgNoteOn MessageKind = iota
	MsgNoteOff
	MsgPitchBend
	MsgControlChange
	MsgClock
	MsgReset
)

// Controller numbers mapped onto engine parameters.
const (
	CCDetune   = 70
	CCUnison   = 71
	CCBitcrush = 72
)

// Message is one decoded MIDI event.
type Message struct {
	Kind       MessageKind
	Note       int
	Velocity   int
	Controller int
	Value      int // 0-127 controller value
	Bend       fix.S78
}

// midiDetuneScale converts a 0-127 CC value to a detune offset in 16.16 Hz,
// spanning roughly the same range as the detune dial.
const midiDetuneScale = fix.U1616(1) << 12 // 1/16 Hz per CC step

// HandleMessage applies one decoded MIDI event. It runs on the control-rate
// side of the single-writer discipline; callers must not invoke it from the
// audio callback. A held MIDI note masks the pitch jack until its note-off.
func (c *Core) HandleMessage(m Message) {
	switch m.Kind {
	case MsgNoteOn:
		if m.Velocity == 0 {
			c.noteOff(m.Note)
			return
		}
		c.midiNote = m.Note
		c.engine.SetNote(m.Note, c.tune)
		c.engine.NoteOn(m.Velocity)
	case MsgNoteOff:
		c.noteOff(m.Note)
	case MsgPitchBend:
		c.tune = m.Bend
		if c.midiNote >= 0 {
			c.engine.SetNote(c.midiNote, c.tune)
		}
	case MsgControlChange:
		c.controlChange(m.Controller, m.Value)
	case MsgClock:
		// Tempo indication only; no synthesis effect.
		c.clock++
	case MsgReset:
		c.reset()
	}
}

func (c *Core) noteOff(note int) {
	if note != c.midiNote {
		return
	}
	c.midiNote = -1
	c.engine.NoteOff()
}

func (c *Core) controlChange(controller, value int) {
	if value < 0 {
		value = 0
	}
	if value > 127 {
		value = 127
	}
	switch controller {
	case CCDetune:
		c.midiDetune = fix.U1616(value) * midiDetuneScale
		c.applyDetune()
	case CCUnison:
		c.midiUnison = value * (MaxUnison + 1) / 128
		c.midiUnisonRaw = c.unisonDial.Raw()
		c.engine.SetUnison(c.midiUnison)
	case CCBitcrush:
		c.midiCrush = value * 2
		c.midiCrushRaw = c.crushDial.Raw()
		c.engine.SetBitcrunch(c.midiCrush)
	}
}

// reset forces note-off and clears tuning and all MIDI contributions; panel
// inputs take back over on the next control tick.
func (c *Core) reset() {
	c.midiNote = -1
	c.tune = 0
	c.midiDetune = 0
	c.midiUnison = -1
	c.midiCrush = -1
	c.engine.NoteOff()
}
