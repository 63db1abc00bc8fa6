// Package cv conditions the raw control inputs of the synthesizer: it maps
// ADC readings to calibrated voltages, smooths them, and derives debounced
// gate state with schmitt-trigger hysteresis.
//
// Conditioning runs once per control tick and never allocates, blocks or
// returns an error; out-of-range readings are clamped, not rejected, so a
// misbehaving input can never stall the control tick.
package cv

import "github.com/cwbudde/algo-cvsynth/fix"

// Source supplies raw integer readings for control inputs. It is the
// boundary to the ADC collaborator; range and linearity are whatever the
// hardware provides, calibration happens here.
type Source interface {
	// Read returns the current raw sample for the given input index.
	Read(input int) int
}

// Calibration holds the per-channel constants measured at device bring-up.
// They are configuration inputs; nothing in this package computes them.
type Calibration struct {
	// Raw1V and Raw5V are the ADC readings observed with 1 V and 5 V
	// applied to the jack.
	Raw1V int
	Raw5V int
	// FullScale is the maximum ADC reading (1023 for a 10-bit converter).
	FullScale int
	// Alpha is the exponential smoothing coefficient in [0, 1); values
	// nearer 1 smooth harder and respond slower.
	Alpha fix.U1616
	// GateSensitivity is the hysteresis margin in raw units: the gate
	// falls below GateSensitivity and rises above FullScale-GateSensitivity.
	GateSensitivity int
}

const (
	minVolts = fix.U1616(1) << 16 // 1.0 V
	maxVolts = fix.U1616(5) << 16 // 5.0 V
)

// Channel is one control-voltage input. One instance exists per physical
// jack; it is updated once per control tick and never destroyed.
type Channel struct {
	cal Calibration

	raw      int
	prevRaw  int
	smoothed fix.U1616
	gate     bool
	prevGate bool
}

// NewChannel creates a channel with the given calibration. The smoothed
// value starts at the bottom of the calibrated range.
func NewChannel(cal Calibration) *Channel {
	return &Channel{cal: cal, smoothed: minVolts}
}

// Update records one control tick: it shifts the previous raw/gate state,
// remaps and clamps the new reading to a voltage, smooths it, and
// re-evaluates the gate with asymmetric hysteresis.
func (c *Channel) Update(raw int) {
	c.prevRaw = c.raw
	c.prevGate = c.gate
	c.raw = raw

	volts := remap(raw, c.cal.Raw1V, c.cal.Raw5V, minVolts, maxVolts)
	c.smoothed = smooth(c.smoothed, volts, c.cal.Alpha)

	if c.gate {
		if raw < c.cal.GateSensitivity {
			c.gate = false
		}
	} else {
		if raw > c.cal.FullScale-c.cal.GateSensitivity {
			c.gate = true
		}
	}
}

// Raw returns the most recent unconditioned reading.
func (c *Channel) Raw() int { return c.raw }

// Smoothed returns the current smoothed voltage in [1.0, 5.0].
func (c *Channel) Smoothed() fix.U1616 { return c.smoothed }

// GateHigh reports the current gate state.
func (c *Channel) GateHigh() bool { return c.gate }

// WentHigh reports a rising gate edge on the most recent Update. It is a
// pure read and stays valid until the next Update.
func (c *Channel) WentHigh() bool { return c.gate && !c.prevGate }

// WentLow reports a falling gate edge on the most recent Update.
func (c *Channel) WentLow() bool { return !c.gate && c.prevGate }

// Dial is a potentiometer input. It follows the same remap-and-smooth path
// as a Channel but spans [0.0, 5.0] and has no gate logic.
type Dial struct {
	cal      Calibration
	raw      int
	smoothed fix.U1616
}

// NewDial creates a dial input. Only FullScale and Alpha of the calibration
// are used.
func NewDial(cal Calibration) *Dial {
	return &Dial{cal: cal}
}

// Update records one control tick for the dial.
func (d *Dial) Update(raw int) {
	d.raw = raw
	volts := remap(raw, 0, d.cal.FullScale, 0, maxVolts)
	d.smoothed = smooth(d.smoothed, volts, d.cal.Alpha)
}

// Raw returns the most recent unconditioned reading.
func (d *Dial) Raw() int { return d.raw }

// Smoothed returns the current smoothed voltage in [0.0, 5.0].
func (d *Dial) Smoothed() fix.U1616 { return d.smoothed }

// remap linearly maps raw from [rawLo, rawHi] onto [outLo, outHi], clamping
// to the output range. The intermediate is 64-bit so calibration constants
// cannot overflow it.
func remap(raw, rawLo, rawHi int, outLo, outHi fix.U1616) fix.U1616 {
	if rawHi <= rawLo {
		return outLo
	}
	if raw <= rawLo {
		return outLo
	}
	if raw >= rawHi {
		return outHi
	}
	span := uint64(outHi - outLo)
	num := uint64(raw-rawLo) * span
	return outLo + fix.U1616(num/uint64(rawHi-rawLo))
}

// smooth is a one-pole exponential filter: prev*alpha + in*(1-alpha).
// Inputs are pre-clamped by remap, so the exact multiply cannot overflow.
func smooth(prev, in, alpha fix.U1616) fix.U1616 {
	return prev.Mul(alpha) + in.Mul(fix.OneU1616-alpha)
}
