package synth

import (
	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-cvsynth/fix"
)

// noteTableLen covers MIDI notes 0-127 plus one guard entry so fine-tune
// interpolation above note 127 stays in bounds.
const noteTableLen = 129

// newNoteTable precomputes the equal-temperament note-to-frequency mapping
// in 16.16 Hz. Runs once at construction; the table keeps the audio and
// control paths free of floating point.
func newNoteTable() *[noteTableLen]fix.U1616 {
	t := new([noteTableLen]fix.U1616)
	for n := range t {
		t[n] = fix.U1616FromFloat(float64(midiNoteToFreq(n)))
	}
	return t
}

// midiNoteToFreq converts a MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

// noteToFreq maps an 8.8 note position (MIDI note plus fraction) to a 16.16
// frequency by linear interpolation between adjacent table entries. The
// mapping is monotonic: table entries strictly increase and interpolation
// preserves order.
func noteToFreq(table *[noteTableLen]fix.U1616, pos fix.U88) fix.U1616 {
	n := int(pos >> 8)
	if n >= noteTableLen-1 {
		return table[noteTableLen-1]
	}
	frac := uint64(pos & 0xff)
	lo := uint64(table[n])
	hi := uint64(table[n+1])
	return fix.U1616(lo + (hi-lo)*frac>>8)
}
