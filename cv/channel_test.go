package cv

import (
	"testing"

	"github.com/cwbudde/algo-cvsynth/fix"
)

func testCalibration() Calibration {
	return Calibration{
		Raw1V:           205,
		Raw5V:           1023,
		FullScale:       1023,
		Alpha:           fix.U1616FromFloat(0.75),
		GateSensitivity: 100,
	}
}

func settle(c *Channel, raw, ticks int) {
	for i := 0; i < ticks; i++ {
		c.Update(raw)
	}
}

func TestRemapHitsCalibratedEndpoints(t *testing.T) {
	cal := testCalibration()
	cal.Alpha = 0 // disable smoothing so remap is visible directly

	c := NewChannel(cal)
	c.Update(cal.Raw1V)
	if got := c.Smoothed().Float(); got != 1.0 {
		t.Fatalf("reading at 1V calibration point: %v V, want 1.0 V", got)
	}
	c.Update(cal.Raw5V)
	if got := c.Smoothed().Float(); got != 5.0 {
		t.Fatalf("reading at 5V calibration point: %v V, want 5.0 V", got)
	}
}

func TestOutOfRangeReadingsClampInsteadOfFailing(t *testing.T) {
	cal := testCalibration()
	cal.Alpha = 0

	c := NewChannel(cal)
	c.Update(-500)
	if got := c.Smoothed().Float(); got != 1.0 {
		t.Fatalf("below-range reading: %v V, want clamp to 1.0 V", got)
	}
	c.Update(40000)
	if got := c.Smoothed().Float(); got != 5.0 {
		t.Fatalf("above-range reading: %v V, want clamp to 5.0 V", got)
	}
}

func TestSmoothingConvergesWithoutOvershoot(t *testing.T) {
	c := NewChannel(testCalibration())

	target := c.cal.Raw5V // converge toward 5.0 V
	prev := c.Smoothed()
	for i := 0; i < 200; i++ {
		c.Update(target)
		cur := c.Smoothed()
		if cur < prev {
			t.Fatalf("smoothed value moved away from target at tick %d: %v -> %v",
				i, prev.Float(), cur.Float())
		}
		if cur > 5<<16 {
			t.Fatalf("smoothed value overshot 5.0 V at tick %d: %v", i, cur.Float())
		}
		prev = cur
	}
	if got := c.Smoothed().Float(); got < 4.999 {
		t.Fatalf("smoothed value did not converge: %v V", got)
	}
}

func TestSmoothingIsIdempotentAtSteadyState(t *testing.T) {
	c := NewChannel(testCalibration())
	settle(c, 600, 500)
	before := c.Smoothed()
	c.Update(600)
	after := c.Smoothed()
	// Truncation makes the fixpoint at most one unit below the input.
	if diff := int64(after) - int64(before); diff < -1 || diff > 1 {
		t.Fatalf("steady state drifted: %d -> %d", before, after)
	}
}

func TestGateHysteresisHasNoChatterBetweenThresholds(t *testing.T) {
	cal := testCalibration()
	c := NewChannel(cal)

	// Drive high first.
	c.Update(cal.FullScale)
	if !c.GateHigh() {
		t.Fatalf("expected gate high at full scale")
	}

	// Raw values strictly between the two thresholds must not change state.
	mid := []int{cal.GateSensitivity + 1, 512, cal.FullScale - cal.GateSensitivity - 1}
	for _, raw := range mid {
		c.Update(raw)
		if !c.GateHigh() {
			t.Fatalf("gate dropped inside hysteresis band at raw=%d", raw)
		}
	}

	// Drop below the low threshold: gate falls on the very next tick.
	c.Update(cal.GateSensitivity - 1)
	if c.GateHigh() {
		t.Fatalf("gate stayed high below low threshold")
	}
	if !c.WentLow() {
		t.Fatalf("expected falling edge")
	}

	// And stays low through the band until the high threshold is exceeded.
	for _, raw := range mid {
		c.Update(raw)
		if c.GateHigh() {
			t.Fatalf("gate rose inside hysteresis band at raw=%d", raw)
		}
	}
	c.Update(cal.FullScale - cal.GateSensitivity + 1)
	if !c.GateHigh() {
		t.Fatalf("gate did not rise above high threshold")
	}
	if !c.WentHigh() {
		t.Fatalf("expected rising edge")
	}
}

func TestEdgeQueriesAreStableWithinATick(t *testing.T) {
	cal := testCalibration()
	c := NewChannel(cal)
	c.Update(cal.FullScale)

	// Multiple reads of the same edge within the tick agree.
	for i := 0; i < 3; i++ {
		if !c.WentHigh() {
			t.Fatalf("edge query changed between reads")
		}
	}
	c.Update(cal.FullScale)
	if c.WentHigh() {
		t.Fatalf("edge persisted past the tick that produced it")
	}
}

func TestDialSpansZeroToFiveVolts(t *testing.T) {
	cal := testCalibration()
	cal.Alpha = 0
	d := NewDial(cal)

	d.Update(0)
	if got := d.Smoothed().Float(); got != 0.0 {
		t.Fatalf("dial at zero: %v V", got)
	}
	d.Update(cal.FullScale)
	if got := d.Smoothed().Float(); got != 5.0 {
		t.Fatalf("dial at full scale: %v V", got)
	}
	d.Update(cal.FullScale / 2)
	got := d.Smoothed().Float()
	if got < 2.4 || got > 2.6 {
		t.Fatalf("dial at half scale: %v V, want ~2.5 V", got)
	}
}
