package synth

import "github.com/cwbudde/algo-cvsynth/fix"

type envState int

const (
	envIdle envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// Envelope is the attack/decay/sustain/release gain generator. Segment
// timers advance at control rate (Update); the audio rate reads one gain
// sample per tick (Next), smoothed toward the control-rate level by a
// one-pole step so the staircase between control ticks does not zipper.
//
// Velocity and all timing constants are pre-validated by the caller; the
// envelope itself has no error states.
type Envelope struct {
	attackTicks  int
	decayTicks   int
	releaseTicks int
	sustainRatio fix.U1616

	state   envState
	counter int

	peak        fix.U1616 // velocity-scaled attack target
	sustain     fix.U1616 // velocity-scaled sustain level
	releaseFrom fix.U1616

	level fix.U1616 // control-rate segment level
	gain  fix.U1616 // audio-rate smoothed gain
}

func newEnvelope(attackTicks, decayTicks, releaseTicks int, sustainRatio fix.U1616) Envelope {
	if attackTicks < 1 {
		attackTicks = 1
	}
	if decayTicks < 1 {
		decayTicks = 1
	}
	if releaseTicks < 1 {
		releaseTicks = 1
	}
	return Envelope{
		attackTicks:  attackTicks,
		decayTicks:   decayTicks,
		releaseTicks: releaseTicks,
		sustainRatio: sustainRatio,
	}
}

// NoteOn scales the attack and sustain targets by velocity (0-127) and
// (re)starts the attack phase.
func (e *Envelope) NoteOn(velocity int) {
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 127 {
		velocity = 127
	}
	e.peak = fix.U1616(velocity) << 9 // 127 -> 0.992 gain
	e.sustain = e.peak.Mul(e.sustainRatio)
	e.state = envAttack
	e.counter = 0
}

// NoteOff starts the release phase from the current level.
func (e *Envelope) NoteOff() {
	if e.state == envIdle {
		return
	}
	e.releaseFrom = e.level
	e.state = envRelease
	e.counter = 0
}

// Active reports whether the envelope is producing gain.
func (e *Envelope) Active() bool {
	return e.state != envIdle || e.gain != 0
}

// Update advances the segment timers by one control tick.
func (e *Envelope) Update() {
	switch e.state {
	case envAttack:
		e.counter++
		e.level = scaleByTicks(e.peak, e.counter, e.attackTicks)
		if e.counter >= e.attackTicks {
			e.level = e.peak
			e.state = envDecay
			e.counter = 0
		}
	case envDecay:
		e.counter++
		e.level = e.sustain + scaleByTicks(e.peak-e.sustain, e.decayTicks-e.counter, e.decayTicks)
		if e.counter >= e.decayTicks {
			e.level = e.sustain
			e.state = envSustain
		}
	case envSustain:
		e.level = e.sustain
	case envRelease:
		e.counter++
		e.level = scaleByTicks(e.releaseFrom, e.releaseTicks-e.counter, e.releaseTicks)
		if e.counter >= e.releaseTicks {
			e.level = 0
			e.state = envIdle
		}
	case envIdle:
		e.level = 0
	}
}

// Next returns the gain for one audio tick, moving one smoothing step toward
// the control-rate level. The arithmetic shift floors, so downward steps
// always move at least one unit and release reaches exactly zero.
func (e *Envelope) Next() fix.U1616 {
	d := (int32(e.level) - int32(e.gain)) >> 5
	e.gain = fix.U1616(int32(e.gain) + d)
	return e.gain
}

// scaleByTicks returns v * num/den for segment interpolation. den is at
// least 1 by construction.
func scaleByTicks(v fix.U1616, num, den int) fix.U1616 {
	if num <= 0 {
		return 0
	}
	if num >= den {
		return v
	}
	return fix.U1616(uint64(v) * uint64(num) / uint64(den))
}
