package core

// StepExecutor is the main step ISR. Each invocation is one step event (or
// a burst of 2/4 at very high rates): it drains a pending quick-stop,
// acquires a block, checks endstops, pulses axes, advances the trapezoid,
// and reprograms its own next deadline — the ordering is load-bearing, see
// Tick.
type StepExecutor struct {
	hw         HardwareAdapter
	src        BlockSource
	cfg        *Config
	pos        *PositionRegister
	endstops   *EndstopMonitor
	advanceBox *AdvanceMailbox
	kinematics KinematicsMode

	current             *Block
	resolved            resolvedKinematics
	br                  BresenhamCounters
	trap                TrapezoidGenerator
	stepEventsCompleted uint32

	zEnabled bool

	// zEnableOut/z2EnableOut, if set via SetZEnableOutputs, route the
	// deferred Z-motor enable through the queued GPIO scheduler instead of
	// hw.EnableWrite directly. Both are optional: a nil zEnableOut falls
	// back to hw.EnableWrite.
	zEnableOut  *DigitalOut
	z2EnableOut *DigitalOut

	drainCounter uint32

	running bool
}

// Timer periods used outside the acceleration-driven rate. Matches the
// spec's ~5ms quick-stop drain cadence and ~1kHz idle poll.
const (
	drainReprogramTicks      = TimerBaseFrequency / 200
	idleReprogramTicks       = TimerBaseFrequency / 1000
	defaultLateEnableTicks   = TimerBaseFrequency / 1000
	minReprogramMargin       = 42
	quickStopDrainTicks      = 5000
)

// NewStepExecutor wires a StepExecutor to its block source, hardware
// adapter, and shared state. kinematics selects the head-direction and
// babystep strategy; pass core.Cartesian when none of the CoreXY/CoreXZ/
// Delta/DualXCarriage variants apply.
func NewStepExecutor(hw HardwareAdapter, src BlockSource, cfg *Config, pos *PositionRegister, endstops *EndstopMonitor, advanceBox *AdvanceMailbox, kinematics KinematicsMode) *StepExecutor {
	return &StepExecutor{
		hw:         hw,
		src:        src,
		cfg:        cfg,
		pos:        pos,
		endstops:   endstops,
		advanceBox: advanceBox,
		kinematics: kinematics,
	}
}

// Busy reports whether a block is currently owned by the executor.
func (e *StepExecutor) Busy() bool { return e.current != nil }

// SetZEnableOutputs routes the deferred Z-motor (and, for dual-Z gantries,
// second Z motor) enable pin through DigitalOut's queued GPIO scheduler
// instead of hw.EnableWrite. z2 may be nil on single-Z boards.
func (e *StepExecutor) SetZEnableOutputs(z, z2 *DigitalOut) {
	e.zEnableOut = z
	e.z2EnableOut = z2
}

// TriggerQuickStop arms the drain guard: the next quickStopDrainTicks
// invocations of Tick release whatever block is current without stepping,
// acting as both an abort and a cooldown before normal motion resumes.
func (e *StepExecutor) TriggerQuickStop() {
	e.drainCounter = quickStopDrainTicks
}

// DrainSource discards the executor's current block, if any, and every
// block still waiting in the source. Called from the foreground with the
// step ISR disabled (StepperCore.QuickStop), since it is not safe to walk
// the source's queue while the ISR might be popping from it concurrently.
func (e *StepExecutor) DrainSource() {
	if e.current != nil {
		e.current.Busy = false
		e.src.DiscardCurrentBlock()
		e.current = nil
	}
	for e.src.BlocksQueued() {
		e.src.DiscardCurrentBlock()
	}
}

// enableZ raises axis's ENABLE pin now, through out's queued scheduler when
// one is set, falling back to a direct hw.EnableWrite otherwise.
func (e *StepExecutor) enableZ(axis AxisIndex, out *DigitalOut) {
	if out != nil {
		out.ScheduleOn(GetTime(), 1)
		return
	}
	e.hw.EnableWrite(axis, true)
}

func (e *StepExecutor) lateEnableTicks() uint32 {
	if e.cfg.LateEnableTicks != 0 {
		return e.cfg.LateEnableTicks
	}
	return defaultLateEnableTicks
}

// Tick runs one invocation of the step ISR. It is intended to be called
// from a hardware timer handler; it reprograms that timer itself before
// returning.
func (e *StepExecutor) Tick() {
	if e.drainCounter > 0 {
		if e.current != nil {
			e.src.DiscardCurrentBlock()
			e.current = nil
		}
		e.drainCounter--
		e.hw.TimerProgramNext(drainReprogramTicks)
		return
	}

	if e.current == nil {
		if !e.src.BlocksQueued() {
			e.hw.TimerProgramNext(idleReprogramTicks)
			return
		}
		b := e.src.PeekCurrentBlock()
		assertValidBlock(b)
		b.Busy = true
		e.current = b
		e.resolved = resolveKinematics(e.kinematics)
		e.br.Reset(b)
		e.trap.Reset(b, e.cfg)
		e.stepEventsCompleted = 0

		for axis := AxisIndex(0); axis < MaxAxes; axis++ {
			if b.Steps[axis] != 0 {
				dir := b.DirectionOf(axis)
				e.pos.SetDirection(axis, dir)
				e.hw.DirPinWrite(axis, dir < 0)
			}
		}
		if b.Steps[AxisZ] != 0 {
			e.hw.DirPinWrite(AxisZ2, b.DirectionOf(AxisZ) < 0)
		}
		if e.cfg.DualX && b.Steps[AxisX] != 0 {
			e.hw.DirPinWrite(AxisX2, b.DirectionOf(AxisX) < 0)
		}
		if b.Steps[AxisE] != 0 {
			e.hw.ExtruderDirPinWrite(b.ActiveExtruder, b.DirectionOf(AxisE) < 0)
		}

		if e.cfg.DeferZEnable && b.Steps[AxisZ] != 0 && !e.zEnabled {
			e.enableZ(AxisZ, e.zEnableOut)
			if e.cfg.DualZ {
				e.enableZ(AxisZ2, e.z2EnableOut)
			}
			e.zEnabled = true
			e.hw.TimerProgramNext(e.lateEnableTicks())
			return
		}
	}

	b := e.current

	if e.endstops.Enabled() {
		headX, headY := e.resolved.headDirection(b)
		owner := e.resolved.homingOwner(b)
		if e.endstops.Check(e.hw, b, e.pos, e.cfg, headX, headY, owner) {
			e.stepEventsCompleted = b.StepEventCount
		}
	}

	loops := e.trap.StepLoops()
	for i := uint8(0); i < loops && e.stepEventsCompleted < b.StepEventCount; i++ {
		if b.AdvanceEnabled {
			phase := phaseCruise
			switch {
			case e.stepEventsCompleted <= b.AccelerateUntil:
				phase = phaseAccel
			case e.stepEventsCompleted > b.DecelerateAfter:
				phase = phaseDecel
			}
			e.advanceBox.Add(e.trap.IntegrateAdvance(b, phase))
		}
		e.pulseOnce(b)
		e.stepEventsCompleted++
	}

	var period uint32
	if e.stepEventsCompleted >= b.StepEventCount {
		period = TimerBaseFrequency / 1000
	} else {
		period = e.trap.Advance(b, e.stepEventsCompleted, e.cfg)
	}

	if period < minReprogramMargin {
		period = minReprogramMargin
	}
	e.hw.TimerProgramNext(period)

	if e.stepEventsCompleted >= b.StepEventCount {
		b.Busy = false
		e.src.DiscardCurrentBlock()
		e.current = nil
	}
}

// pulseOnce runs one Bresenham iteration: decide which axes pulse, raise
// every pulsing STEP pin, then lower all of them — never interleaved, so
// drivers wired in parallel see simultaneous edges.
func (e *StepExecutor) pulseOnce(b *Block) {
	pulseX := e.br.Pulse(AxisX, b)
	pulseY := e.br.Pulse(AxisY, b)
	pulseZ := e.br.Pulse(AxisZ, b)
	pulseE := e.br.Pulse(AxisE, b)

	xTarget := AxisX
	if e.cfg.DualX && e.resolved.homingOwner(b) == AxisX2 {
		xTarget = AxisX2
	}

	if pulseX {
		e.pos.Advance(AxisX)
		e.hw.StepPinWrite(xTarget, true)
	}
	if pulseY {
		e.pos.Advance(AxisY)
		e.hw.StepPinWrite(AxisY, true)
	}
	z2Locked := e.endstops.AxisLocked(AxisZ2)
	zLocked := e.endstops.AxisLocked(AxisZ)
	if pulseZ {
		e.pos.Advance(AxisZ)
		if !zLocked {
			e.hw.StepPinWrite(AxisZ, true)
		}
		if e.cfg.DualZ && !z2Locked {
			e.hw.StepPinWrite(AxisZ2, true)
		}
	}
	if pulseE {
		e.pos.Advance(AxisE)
		e.hw.ExtruderStepPinWrite(b.ActiveExtruder, true)
	}

	if pulseX {
		e.hw.StepPinWrite(xTarget, false)
	}
	if pulseY {
		e.hw.StepPinWrite(AxisY, false)
	}
	if pulseZ {
		if !zLocked {
			e.hw.StepPinWrite(AxisZ, false)
		}
		if e.cfg.DualZ && !z2Locked {
			e.hw.StepPinWrite(AxisZ2, false)
		}
	}
	if pulseE {
		e.hw.ExtruderStepPinWrite(b.ActiveExtruder, false)
	}
}

// Babystep emits one short pulse on axis in direction dir, restoring the
// block's own direction afterward. ISR-only: it is never safe to call
// outside the step ISR, since it mutates direction pins StepExecutor may
// be mid-burst on.
func (e *StepExecutor) Babystep(axis AxisIndex, dir int8) {
	axes := []AxisIndex{axis}
	if e.current != nil {
		if bs := e.resolved.babystepAxes; bs != nil {
			axes = bs
		}
	}

	prevDir := make([]int8, len(axes))
	for i, a := range axes {
		prevDir[i] = e.pos.Direction(a)
		e.pos.SetDirection(a, dir)
		e.hw.DirPinWrite(a, dir < 0)
	}

	for _, a := range axes {
		e.hw.StepPinWrite(a, true)
	}
	for _, a := range axes {
		e.hw.StepPinWrite(a, false)
		e.pos.Bump(a, dir)
	}

	for i, a := range axes {
		e.pos.SetDirection(a, prevDir[i])
		e.hw.DirPinWrite(a, prevDir[i] < 0)
	}
}
