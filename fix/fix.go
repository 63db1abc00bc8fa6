// Package fix provides the fixed-point number formats used throughout the
// synthesizer core. Each format is a distinct named integer type so that
// cross-format arithmetic is a compile error rather than a silent bug;
// converting between formats is an explicit shift or rescale at the call
// site.
//
// Formats are named integer-bits.fraction-bits. All arithmetic wraps per the
// native integer width; callers clamp inputs known to risk overflow before
// multiplying (the conditioning stage does exactly that).
package fix

// S78 is a signed fixed-point value with 7 integer bits and 8 fraction bits.
// It covers [-128, 128) with 1/256 resolution and is used for fine-tune
// offsets in semitones.
type S78 int16

// U88 is an unsigned fixed-point value with 8 integer bits and 8 fraction
// bits, covering [0, 256). It is used for note positions (MIDI note plus
// fraction).
type U88 uint16

// S1516 is a signed fixed-point value with 15 integer bits and 16 fraction
// bits. It is the working format for signal-domain products: sample sums,
// reciprocal averaging and gain scaling.
type S1516 int32

// U1616 is an unsigned fixed-point value with 16 integer bits and 16
// fraction bits. It is used for voltages, oscillator frequencies in Hz,
// smoothing coefficients and envelope gains.
type U1616 uint32

// One is the representation of 1.0 in each format.
const (
	OneS78   S78   = 1 << 8
	OneU88   U88   = 1 << 8
	OneS1516 S1516 = 1 << 16
	OneU1616 U1616 = 1 << 16
)

// Mul returns a*b in S78, computed exactly through a 32-bit intermediate.
func (a S78) Mul(b S78) S78 {
	return S78(int32(a) * int32(b) >> 8)
}

// FastMul returns an approximation of a*b without widening: both operands
// are pre-shifted down by half the fraction width. Lossy; the result can
// deviate from Mul by up to (|a|+|b|)>>4 units. Use only where the loss is
// inaudible.
func (a S78) FastMul(b S78) S78 {
	return (a >> 4) * (b >> 4)
}

// Mul returns a*b in U88, computed exactly through a 32-bit intermediate.
func (a U88) Mul(b U88) U88 {
	return U88(uint32(a) * uint32(b) >> 8)
}

// FastMul returns an approximation of a*b without widening. Lossy; see
// S78.FastMul.
func (a U88) FastMul(b U88) U88 {
	return (a >> 4) * (b >> 4)
}

// Mul returns a*b in S1516, computed exactly through a 64-bit intermediate.
func (a S1516) Mul(b S1516) S1516 {
	return S1516(int64(a) * int64(b) >> 16)
}

// FastMul returns an approximation of a*b without the 64-bit intermediate:
// both operands are pre-shifted down by 8 bits. Lossy; the result can
// deviate from Mul by up to (|a|+|b|)>>8 units. The mixdown reciprocal and
// gain stages use this, where the error is below the output quantization.
func (a S1516) FastMul(b S1516) S1516 {
	return (a >> 8) * (b >> 8)
}

// Mul returns a*b in U1616, computed exactly through a 64-bit intermediate.
func (a U1616) Mul(b U1616) U1616 {
	return U1616(uint64(a) * uint64(b) >> 16)
}

// FastMul returns an approximation of a*b without widening. Lossy; see
// S1516.FastMul. The unison detune escalation uses this.
func (a U1616) FastMul(b U1616) U1616 {
	return (a >> 8) * (b >> 8)
}

// Conversions below exist for configuration and tests. The audio path never
// touches floating point.

// S78FromFloat converts a float to S78, truncating toward zero.
func S78FromFloat(f float64) S78 { return S78(f * 256) }

// Float returns the real value represented by a.
func (a S78) Float() float64 { return float64(a) / 256 }

// U88FromFloat converts a non-negative float to U88, truncating.
func U88FromFloat(f float64) U88 { return U88(f * 256) }

// Float returns the real value represented by a.
func (a U88) Float() float64 { return float64(a) / 256 }

// S1516FromFloat converts a float to S1516, truncating toward zero.
func S1516FromFloat(f float64) S1516 { return S1516(f * 65536) }

// Float returns the real value represented by a.
func (a S1516) Float() float64 { return float64(a) / 65536 }

// U1616FromFloat converts a non-negative float to U1616, truncating.
func U1616FromFloat(f float64) U1616 { return U1616(f * 65536) }

// Float returns the real value represented by a.
func (a U1616) Float() float64 { return float64(a) / 65536 }
