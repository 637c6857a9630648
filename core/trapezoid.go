package core

// TimerBaseFrequency is the step timer's tick rate. Matches the teacher's
// stepper queue, which ran its interval/add timing off a 12MHz counter.
const TimerBaseFrequency = 12_000_000

// trapezoidPhase names which leg of the velocity profile a step event
// falls in.
type trapezoidPhase uint8

const (
	phaseAccel trapezoidPhase = iota
	phaseCruise
	phaseDecel
)

// mulHi32 computes a rounded multiply-high on 32.32 fixed-point operands:
// (uint64(a)*b + 0x80000000) >> 32. Used for Δrate = acceleration_rate ·
// time, which needs a 64-bit intermediate to avoid overflow.
func mulHi32(a, b uint32) uint32 {
	return uint32((uint64(a)*uint64(b) + 0x80000000) >> 32)
}

// rateToPeriod converts a steps-per-second rate into a timer period and the
// number of Bresenham iterations ("step_loops") to run per ISR tick at that
// rate. Very high step rates are handled by pulsing 2 or 4 steps per tick
// instead of reprogramming the timer faster than it can reliably fire.
func rateToPeriod(stepsPerSec uint32, cfg *Config) (period uint32, stepLoops uint8) {
	if stepsPerSec > cfg.MaxStepFrequency {
		stepsPerSec = cfg.MaxStepFrequency
	}

	switch {
	case cfg.HighSpeedStepping && stepsPerSec > 2*cfg.DoubleStepFrequency:
		stepsPerSec >>= 2
		stepLoops = 4
	case stepsPerSec > cfg.DoubleStepFrequency:
		stepsPerSec >>= 1
		stepLoops = 2
	default:
		stepLoops = 1
	}

	if stepsPerSec == 0 {
		stepsPerSec = 1
	}
	period = TimerBaseFrequency / stepsPerSec
	return period, stepLoops
}

// TrapezoidState is the per-block runtime state of the velocity profile.
type TrapezoidState struct {
	AccStepRate       uint32
	AccelerationTime  uint32
	DecelerationTime  uint32
	StepLoops         uint8
	StepLoopsNominal  uint8
	OCRNominal        uint32
	Advance           int32
	OldAdvance        int32
}

// TrapezoidGenerator integrates the three-phase accel/cruise/decel profile
// for exactly one block at a time.
type TrapezoidGenerator struct {
	state TrapezoidState
}

// Reset begins tracking a newly acquired block.
func (g *TrapezoidGenerator) Reset(b *Block, cfg *Config) {
	g.state = TrapezoidState{AccStepRate: b.InitialRate}
	period, loops := rateToPeriod(b.NominalRate, cfg)
	g.state.OCRNominal = period
	g.state.StepLoopsNominal = loops
	if b.AdvanceEnabled {
		g.state.Advance = b.InitialAdvance
		g.state.OldAdvance = b.InitialAdvance >> 8
	}
}

// StepLoops returns the number of Bresenham iterations the current tick
// should perform.
func (g *TrapezoidGenerator) StepLoops() uint8 {
	if g.state.StepLoops == 0 {
		return 1
	}
	return g.state.StepLoops
}

// Advance selects the accel/cruise/decel branch for stepEventsCompleted,
// updates AccStepRate/StepLoops, and returns the timer period for this
// tick. The tie-break rule is literal: the accel branch applies through
// AccelerateUntil inclusive; the decel branch applies strictly after
// DecelerateAfter; everything between is cruise.
func (g *TrapezoidGenerator) Advance(b *Block, stepEventsCompleted uint32, cfg *Config) uint32 {
	s := &g.state
	var period uint32

	switch {
	case stepEventsCompleted <= b.AccelerateUntil:
		delta := mulHi32(b.AccelerationRate, s.AccelerationTime)
		newRate := b.InitialRate + delta
		if newRate > b.NominalRate {
			newRate = b.NominalRate
		}
		s.AccStepRate = newRate
		period, s.StepLoops = rateToPeriod(newRate, cfg)
		s.AccelerationTime += period

	case stepEventsCompleted > b.DecelerateAfter:
		delta := mulHi32(b.AccelerationRate, s.DecelerationTime)
		var newRate uint32
		if delta >= s.AccStepRate || s.AccStepRate-delta < b.FinalRate {
			// Underflow would flip the sign of an unsigned rate — spec's
			// required fallback to final_rate.
			newRate = b.FinalRate
		} else {
			newRate = s.AccStepRate - delta
		}
		s.AccStepRate = newRate
		period, s.StepLoops = rateToPeriod(newRate, cfg)
		s.DecelerationTime += period

	default:
		period = s.OCRNominal
		s.StepLoops = s.StepLoopsNominal
		s.AccStepRate = b.NominalRate
	}

	return period
}

// IntegrateAdvance updates the pressure-advance accumulator for one inner
// loop iteration and returns the e_steps delta to post to the advance
// mailbox. Returns 0 when the block has no pressure-advance component.
func (g *TrapezoidGenerator) IntegrateAdvance(b *Block, phase trapezoidPhase) int32 {
	if !b.AdvanceEnabled {
		return 0
	}
	s := &g.state

	switch phase {
	case phaseAccel:
		s.Advance += b.AdvanceRate
	case phaseDecel:
		s.Advance -= b.AdvanceRate
	}

	lo, hi := b.FinalAdvance, b.InitialAdvance
	if lo > hi {
		lo, hi = hi, lo
	}
	if s.Advance < lo {
		s.Advance = lo
	}
	if s.Advance > hi {
		s.Advance = hi
	}

	current := s.Advance >> 8
	delta := current - s.OldAdvance
	s.OldAdvance = current
	return delta
}
