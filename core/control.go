package core

import "fmt"

// StepperCore is the foreground-facing control surface over StepExecutor,
// AdvanceExecutor, EndstopMonitor, and PositionRegister: everything outside
// the two ISRs that G-code handling, homing routines, and the idle loop
// call directly.
type StepperCore struct {
	hw       HardwareAdapter
	cfg      *Config
	pos      *PositionRegister
	endstops *EndstopMonitor
	exec     *StepExecutor
	advance  *AdvanceExecutor

	onAbort func(reason EndstopHitReason)
}

// EndstopHitReason is the message check_hit_endstops reports for one
// tripped axis.
type EndstopHitReason struct {
	Axis        AxisIndex
	Bit         EndstopBit
	TrigSteps   int64
	TrigUnits   float64
}

// NewStepperCore assembles the control surface around an already-built
// StepExecutor/AdvanceExecutor pair. onAbort, if non-nil, is invoked by
// QuickStop after the abort is latched.
func NewStepperCore(hw HardwareAdapter, cfg *Config, pos *PositionRegister, endstops *EndstopMonitor, exec *StepExecutor, advance *AdvanceExecutor, onAbort func(EndstopHitReason)) *StepperCore {
	return &StepperCore{hw: hw, cfg: cfg, pos: pos, endstops: endstops, exec: exec, advance: advance, onAbort: onAbort}
}

// Wake enables the step timer interrupt and starts the advance ISR.
func (c *StepperCore) Wake() {
	c.hw.TimerEnableISR()
	c.advance.Start()
}

// Synchronize blocks the caller until the block source is drained and no
// block is active, cooperatively yielding to idle between checks. idle must
// service whatever other work the foreground owns (serial I/O, temperature
// control) — StepperCore has no visibility into it.
func (c *StepperCore) Synchronize(src BlockSource, idle func()) {
	for src.BlocksQueued() || c.exec.Busy() {
		idle()
	}
}

// QuickStop aborts the current move: it disables the step ISR, arms the
// drain guard (which discards whatever block is current over the next few
// thousand ticks, acting as a cooldown), then re-enables the ISR so the
// drain actually runs.
func (c *StepperCore) QuickStop() {
	c.hw.TimerDisableISR()
	c.exec.DrainSource()
	c.exec.TriggerQuickStop()
	c.hw.TimerEnableISR()

	if bits := c.endstops.HitBits(); c.onAbort != nil && bits != 0 {
		candidates := []struct {
			axis AxisIndex
			bit  EndstopBit
		}{
			{AxisX, BitXMin}, {AxisX, BitXMax},
			{AxisY, BitYMin}, {AxisY, BitYMax},
			{AxisZ, BitZMin}, {AxisZ, BitZMax},
			{AxisZ2, BitZ2Min}, {AxisZ2, BitZ2Max},
			{AxisZ, BitZProbe},
			{AxisX2, BitX2Min}, {AxisX2, BitX2Max},
		}
		for _, cand := range candidates {
			if bits&uint16(cand.bit) == 0 {
				continue
			}
			c.onAbort(EndstopHitReason{Axis: cand.axis, Bit: cand.bit, TrigSteps: c.endstops.TrigSteps(cand.axis)})
		}
	}
}

// FinishAndDisable synchronizes then deasserts every driver ENABLE pin.
func (c *StepperCore) FinishAndDisable(src BlockSource, idle func()) {
	c.Synchronize(src, idle)
	for axis := AxisIndex(0); axis < MaxAxes; axis++ {
		c.hw.EnableWrite(axis, false)
	}
	c.exec.zEnabled = false
}

// SetPosition atomically assigns X/Y/Z/E, disabling interrupts across the
// whole multi-word write.
func (c *StepperCore) SetPosition(x, y, z, e int64) {
	c.pos.Set(x, y, z, e)
}

// SetEPosition atomically assigns the extruder position.
func (c *StepperCore) SetEPosition(e int64) {
	c.pos.SetE(e)
}

// GetPosition returns axis's raw step count.
func (c *StepperCore) GetPosition(axis AxisIndex) int64 {
	return c.pos.Get(axis)
}

// GetPositionMM converts axis's raw step count to physical units via
// Config.StepsPerUnit.
func (c *StepperCore) GetPositionMM(axis AxisIndex) float64 {
	spu := c.cfg.StepsPerUnit[axis]
	if spu == 0 {
		return 0
	}
	return float64(c.pos.Get(axis)) / spu
}

// EnableEndstops arms or disarms endstop checking for the next moves.
func (c *StepperCore) EnableEndstops(on bool) {
	c.endstops.Enable(on)
}

// InHomingProcess arms or disarms the dual-Z independent-motor-lock path;
// callers enter it before issuing a homing move on a dual-Z axis and leave
// it once homing completes.
func (c *StepperCore) InHomingProcess(on bool) {
	c.endstops.SetHoming(on)
}

// RouteProbeAsHoming controls whether a Z-probe trip alone terminates the
// current block, per the resolved probe/endstop ambiguity.
func (c *StepperCore) RouteProbeAsHoming(on bool) {
	c.endstops.SetProbeRoutedAsHoming(on)
}

// EndstopsHitOnPurpose reports whether any endstop bit is set, for callers
// that issued a deliberate homing move and want to confirm it actually
// tripped something before treating a stop as an error.
func (c *StepperCore) EndstopsHitOnPurpose() bool {
	return c.endstops.HitBits() != 0
}

// CheckHitEndstops is the non-ISR consumer of EndstopMonitor's trip bits: it
// formats one message per tripped axis, clears the bits, and reports
// whether anything had tripped.
func (c *StepperCore) CheckHitEndstops() []string {
	bits := c.endstops.HitBits()
	if bits == 0 {
		return nil
	}
	defer c.endstops.ClearHitBits()

	type namedBit struct {
		axis AxisIndex
		bit  EndstopBit
		name string
	}
	candidates := []namedBit{
		{AxisX, BitXMin, "x_min"}, {AxisX, BitXMax, "x_max"},
		{AxisY, BitYMin, "y_min"}, {AxisY, BitYMax, "y_max"},
		{AxisZ, BitZMin, "z_min"}, {AxisZ, BitZMax, "z_max"},
		{AxisZ2, BitZ2Min, "z2_min"}, {AxisZ2, BitZ2Max, "z2_max"},
		{AxisZ, BitZProbe, "probe"},
		{AxisX2, BitX2Min, "x2_min"}, {AxisX2, BitX2Max, "x2_max"},
	}

	var messages []string
	for _, nb := range candidates {
		if bits&uint16(nb.bit) == 0 {
			continue
		}
		steps := c.endstops.TrigSteps(nb.axis)
		units := float64(0)
		if spu := c.cfg.StepsPerUnit[nb.axis]; spu != 0 {
			units = float64(steps) / spu
		}
		messages = append(messages, fmt.Sprintf("%s triggered at %.4f", nb.name, units))
	}
	return messages
}

// LockZMotor reports whether the Z motor is currently locked out of
// pulsing by a dual-Z homing trip.
func (c *StepperCore) LockZMotor() bool { return c.endstops.AxisLocked(AxisZ) }

// LockZ2Motor reports whether the second Z motor is currently locked out of
// pulsing by a dual-Z homing trip.
func (c *StepperCore) LockZ2Motor() bool { return c.endstops.AxisLocked(AxisZ2) }

// Babystep delegates to the step ISR's Babystep; see StepExecutor.Babystep
// for why this must never be called outside the ISR.
func (c *StepperCore) Babystep(axis AxisIndex, dir int8) {
	c.exec.Babystep(axis, dir)
}
