package synth

import "math"

// TableLen is the number of entries in a wavetable. The oscillator phase
// accumulator indexes it with the integer part of a 16.16 phase, modulo
// TableLen.
const TableLen = 256

// tableAmp is the peak wavetable amplitude; the engine's native sample
// range is signed 8-bit.
const tableAmp = 127

// Wavetable is one cycle of a waveform at the engine's native 8-bit sample
// depth. All oscillators of an engine share a single table.
type Wavetable [TableLen]int8

// Waveform selects the shape generated into a Wavetable.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSaw      Waveform = "saw"
	WaveSquare   Waveform = "square"
)

// NewWavetable generates one cycle of the given waveform. Unknown waveforms
// fall back to sine. Generation runs once at construction; the audio path
// only ever reads the table.
func NewWavetable(w Waveform) *Wavetable {
	t := new(Wavetable)
	switch w {
	case WaveTriangle:
		for i := range t {
			switch {
			case i < TableLen/4:
				t[i] = int8(tableAmp * i / (TableLen / 4))
			case i < 3*TableLen/4:
				t[i] = int8(tableAmp - tableAmp*(i-TableLen/4)/(TableLen/4))
			default:
				t[i] = int8(-tableAmp + tableAmp*(i-3*TableLen/4)/(TableLen/4))
			}
		}
	case WaveSaw:
		for i := range t {
			t[i] = int8(-tableAmp + 2*tableAmp*i/(TableLen-1))
		}
	case WaveSquare:
		for i := range t {
			if i < TableLen/2 {
				t[i] = tableAmp
			} else {
				t[i] = -tableAmp
			}
		}
	default:
		for i := range t {
			t[i] = int8(math.Round(tableAmp * math.Sin(2*math.Pi*float64(i)/TableLen)))
		}
	}
	return t
}
