package core

// Pressure-advance extruder stepping, running as a second, independent ISR.
//
// StepExecutor's pulse loop only knows how many extra extruder steps a
// block's pressure-advance ramp wants over the whole move; it cannot also
// afford to pulse them itself without stealing time from the axis pulses it
// is mid-burst on. So it posts signed step counts into AdvanceMailbox and
// AdvanceExecutor drains them on its own fixed-rate timer, the same
// two-ISR split the teacher used to keep endstop oversampling off the step
// ISR's critical path.
const advanceTickHz = 10_000

// AdvanceMailbox is the lock-protected handoff between the step ISR
// (producer, one per block pulse) and the advance ISR (consumer, one per
// tick). A plain int64 accumulator suffices: the mailbox only needs the net
// step count since the last drain, not individual entries.
type AdvanceMailbox struct {
	pending int64
}

// Add posts delta extra extruder steps (positive or negative) from the step
// ISR.
func (m *AdvanceMailbox) Add(delta int32) {
	if delta == 0 {
		return
	}
	state := disableInterrupts()
	m.pending += int64(delta)
	restoreInterrupts(state)
}

// TakeOne withdraws a single step's worth of direction from the mailbox: -1,
// 0, or 1. Draining one step per tick, rather than the whole backlog at
// once, is what turns a burst of advance steps into a smooth pulse train.
func (m *AdvanceMailbox) TakeOne() int8 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	switch {
	case m.pending > 0:
		m.pending--
		return 1
	case m.pending < 0:
		m.pending++
		return -1
	default:
		return 0
	}
}

// Pending reports the mailbox's current signed backlog, for diagnostics.
func (m *AdvanceMailbox) Pending() int64 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return m.pending
}

// AdvanceExecutor pulses the active extruder's stepper from AdvanceMailbox
// at a fixed rate, independent of the main step ISR's variable rate.
type AdvanceExecutor struct {
	hw       HardwareAdapter
	mbox     *AdvanceMailbox
	pos      *PositionRegister
	cfg      *Config
	extruder func() uint8

	timer       Timer
	periodTicks uint32
	running     bool
}

// NewAdvanceExecutor builds an AdvanceExecutor pulsing hw's extruder pins,
// reading the active extruder index from extruderFn (so a tool change is
// picked up without restarting the executor).
func NewAdvanceExecutor(hw HardwareAdapter, mbox *AdvanceMailbox, pos *PositionRegister, cfg *Config, extruderFn func() uint8) *AdvanceExecutor {
	return &AdvanceExecutor{
		hw:          hw,
		mbox:        mbox,
		pos:         pos,
		cfg:         cfg,
		extruder:    extruderFn,
		periodTicks: TimerBaseFrequency / advanceTickHz,
	}
}

// Start arms the advance timer. Idempotent.
func (a *AdvanceExecutor) Start() {
	if a.running {
		return
	}
	a.running = true
	a.timer.Next = nil
	a.timer.WakeTime = GetTime() + a.periodTicks
	a.timer.Handler = a.tick
	ScheduleTimer(&a.timer)
}

// Stop disarms the advance timer; any mailbox backlog is discarded.
func (a *AdvanceExecutor) Stop() {
	a.running = false
}

func (a *AdvanceExecutor) tick(t *Timer) uint8 {
	if !a.running {
		return SF_DONE
	}

	if !a.cfg.PressureAdvanceEnabled {
		t.WakeTime += a.periodTicks
		return SF_RESCHEDULE
	}

	extruder := a.extruder()
	if dir := a.mbox.TakeOne(); dir != 0 {
		// ExtruderDirPinWrite's level convention is "true means reverse",
		// matching StepExecutor's ExtruderDirPinWrite(e, b.DirectionOf(AxisE) < 0).
		level := dir < 0
		a.hw.ExtruderDirPinWrite(extruder, level)
		a.hw.ExtruderStepPinWrite(extruder, true)
		a.hw.ExtruderStepPinWrite(extruder, false)
		a.pos.Bump(AxisE, dir)
	}

	t.WakeTime += a.periodTicks
	return SF_RESCHEDULE
}
