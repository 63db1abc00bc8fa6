package synth

import "github.com/cwbudde/algo-cvsynth/fix"

// Oscillator is a phase accumulator over a shared wavetable. It produces one
// signed 8-bit sample per call at a settable frequency. Nine instances exist
// per engine: one primary plus eight unison copies.
type Oscillator struct {
	table      *Wavetable
	sampleRate int
	freq       fix.U1616
	phase      fix.U1616
	inc        fix.U1616
}

func (o *Oscillator) init(table *Wavetable, sampleRate int) {
	o.table = table
	o.sampleRate = sampleRate
}

// SetFrequency sets the oscillator frequency in 16.16 Hz. The phase
// increment is derived through a 64-bit intermediate; this runs at control
// rate or during the deferred unison recompute, never per sample.
func (o *Oscillator) SetFrequency(hz fix.U1616) {
	o.freq = hz
	o.inc = fix.U1616(uint64(hz) * TableLen / uint64(o.sampleRate))
}

// Frequency returns the oscillator frequency in 16.16 Hz.
func (o *Oscillator) Frequency() fix.U1616 { return o.freq }

// Next returns the current table sample and advances the phase. The integer
// part of the 16.16 phase wraps modulo the table length by masking.
func (o *Oscillator) Next() int8 {
	s := o.table[(o.phase>>16)&(TableLen-1)]
	o.phase += o.inc
	return s
}
