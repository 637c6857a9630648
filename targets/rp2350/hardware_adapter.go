//go:build rp2350

package main

import (
	"stepexec/core"

	"machine"
)

// axisPins maps a core.AxisIndex to its STEP/DIR/ENABLE GPIO numbers. Zero
// means "not wired on this board" — writes to an unwired axis are no-ops.
type axisPins struct {
	step, dir, enable machine.Pin
	wired             bool
}

// endstopPins maps one (axis, side) limit switch to its input pin.
type endstopPins struct {
	min, max machine.Pin
	wiredMin, wiredMax bool
}

// probeSource is satisfied by core.AnalogProbe, core.I2CProbe, and
// core.VL53L1XProbe — any Z-probe mechanism richer than a plain GPIO pin.
type probeSource interface {
	Triggered() bool
}

// RP2350Adapter is the core.HardwareAdapter for a GPIO-direct RP2350 board:
// no PIO, no per-axis independent timer — StepExecutor drives every pin
// itself from its own ISR tick.
type RP2350Adapter struct {
	axes       [core.MaxAxes]axisPins
	endstops   [core.MaxAxes]endstopPins
	probePin   machine.Pin
	probeWired bool
	probeSrc   probeSource

	extruderStep, extruderDir [1]machine.Pin
	extruderWired             [1]bool

	exec *core.StepExecutor
	cfg  *core.Config

	timerArmed bool
	timer      core.Timer
}

// NewRP2350Adapter configures every pin named in the board's pin map as an
// output (steps/dirs/enables) or pull-up input (endstops/probe).
func NewRP2350Adapter() *RP2350Adapter {
	a := &RP2350Adapter{}
	return a
}

// SetConfig wires the boot-time invert-polarity flags (spec §6's per-axis
// step/dir/enable invert and min/max endstop polarity) into pin I/O. Safe
// to skip; a nil cfg leaves every polarity at its non-inverted default.
func (a *RP2350Adapter) SetConfig(cfg *core.Config) { a.cfg = cfg }

func (a *RP2350Adapter) invertStep(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertStep[axis]
}
func (a *RP2350Adapter) invertDir(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertDir[axis]
}
func (a *RP2350Adapter) invertEnable(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertEnable[axis]
}

// BindAxis wires axis's step/dir/enable pins.
func (a *RP2350Adapter) BindAxis(axis core.AxisIndex, step, dir, enable machine.Pin) {
	step.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dir.Configure(machine.PinConfig{Mode: machine.PinOutput})
	enable.Configure(machine.PinConfig{Mode: machine.PinOutput})
	a.axes[axis] = axisPins{step: step, dir: dir, enable: enable, wired: true}
}

// BindEndstop wires one limit switch for axis/side as a pulled-up input.
func (a *RP2350Adapter) BindEndstop(axis core.AxisIndex, side core.EndstopSide, pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	ep := &a.endstops[axis]
	if side == core.EndstopMin {
		ep.min, ep.wiredMin = pin, true
	} else {
		ep.max, ep.wiredMax = pin, true
	}
}

// BindProbe wires the Z-probe pin as a pulled-up input.
func (a *RP2350Adapter) BindProbe(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	a.probePin, a.probeWired = pin, true
}

// BindProbeSource routes ProbeRead through a richer Z-probe mechanism
// (distance sensor or analog threshold) instead of the plain probe pin.
func (a *RP2350Adapter) BindProbeSource(src probeSource) {
	a.probeSrc = src
}

// BindExtruder wires one extruder channel's step/dir pins.
func (a *RP2350Adapter) BindExtruder(extruder uint8, step, dir machine.Pin) {
	step.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dir.Configure(machine.PinConfig{Mode: machine.PinOutput})
	a.extruderStep[extruder] = step
	a.extruderDir[extruder] = dir
	a.extruderWired[extruder] = true
}

// SetExecutor lets TimerProgramNext chain back into Tick; must be called
// once after the StepExecutor that owns this adapter is constructed.
func (a *RP2350Adapter) SetExecutor(exec *core.StepExecutor) {
	a.exec = exec
}

func (a *RP2350Adapter) StepPinWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if p.wired {
		if a.invertStep(axis) {
			level = !level
		}
		p.step.Set(level)
	}
}

func (a *RP2350Adapter) DirPinWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if p.wired {
		if a.invertDir(axis) {
			level = !level
		}
		p.dir.Set(level)
	}
}

func (a *RP2350Adapter) EnableWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if p.wired {
		if a.invertEnable(axis) {
			level = !level
		}
		p.enable.Set(level)
	}
}

func (a *RP2350Adapter) ExtruderStepPinWrite(extruder uint8, level bool) {
	if int(extruder) < len(a.extruderWired) && a.extruderWired[extruder] {
		a.extruderStep[extruder].Set(level)
	}
}

func (a *RP2350Adapter) ExtruderDirPinWrite(extruder uint8, level bool) {
	if int(extruder) < len(a.extruderWired) && a.extruderWired[extruder] {
		a.extruderDir[extruder].Set(level)
	}
}

func (a *RP2350Adapter) EndstopRead(axis core.AxisIndex, side core.EndstopSide) bool {
	ep := &a.endstops[axis]
	if side == core.EndstopMin {
		if !ep.wiredMin {
			return false
		}
		level := !ep.min.Get()
		if a.cfg != nil && a.cfg.EndstopMinInvert[axis] {
			level = !level
		}
		return level
	}
	if !ep.wiredMax {
		return false
	}
	level := !ep.max.Get()
	if a.cfg != nil && a.cfg.EndstopMaxInvert[axis] {
		level = !level
	}
	return level
}

func (a *RP2350Adapter) ProbeRead() bool {
	if a.probeSrc != nil {
		return a.probeSrc.Triggered()
	}
	return a.probeWired && !a.probePin.Get()
}

// TimerProgramNext schedules exec.Tick to run ticksFromNow ticks in the
// future via the teacher's software timer queue; ticks are converted to the
// hardware microsecond clock by core.TimerToUS.
func (a *RP2350Adapter) TimerProgramNext(ticksFromNow uint32) {
	if !a.timerArmed {
		return
	}
	a.timer.Next = nil
	a.timer.WakeTime = core.GetTime() + ticksFromNow
	a.timer.Handler = a.tick
	core.ScheduleTimer(&a.timer)
}

func (a *RP2350Adapter) tick(t *core.Timer) uint8 {
	if a.timerArmed && a.exec != nil {
		a.exec.Tick()
	}
	return core.SF_DONE
}

func (a *RP2350Adapter) TimerEnableISR() {
	a.timerArmed = true
	a.TimerProgramNext(core.TimerBaseFrequency / 1000)
}

func (a *RP2350Adapter) TimerDisableISR() {
	a.timerArmed = false
	a.timer.Next = nil
}

func (a *RP2350Adapter) TimerBaseFrequency() uint32 {
	return core.TimerBaseFrequency
}

// IdleHook yields briefly so USB and UART diagnostics get serviced between
// synchronize() polls.
func (a *RP2350Adapter) IdleHook() {
	core.ProcessTimers()
}
