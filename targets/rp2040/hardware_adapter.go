//go:build rp2040 || rp2350

package main

import (
	piostepper "stepexec/targets/pio"
	"stepexec/core"

	"machine"
)

type axisPins struct {
	step, dir, enable machine.Pin
	wired             bool
	pio               *piostepper.PIOStepperBackend
}

type endstopPins struct {
	min, max           machine.Pin
	wiredMin, wiredMax bool
}

// probeSource is satisfied by core.AnalogProbe, core.I2CProbe, and
// core.VL53L1XProbe — any Z-probe mechanism richer than a plain GPIO pin.
type probeSource interface {
	Triggered() bool
}

// RP2040Adapter is the core.HardwareAdapter for boards that drive step
// pulses directly from the ISR, optionally delegating one or more axes to
// a PIO state machine for jitter-free timing (see BindAxisPIO).
type RP2040Adapter struct {
	axes     [core.MaxAxes]axisPins
	endstops [core.MaxAxes]endstopPins

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

func NewRP2040Adapter() *RP2040Adapter {
	return &RP2040Adapter{}
}

// SetConfig wires the boot-time invert-polarity flags (spec §6's per-axis
// step/dir/enable invert and min/max endstop polarity) into pin I/O. Safe
// to skip; a nil cfg leaves every polarity at its non-inverted default.
func (a *RP2040Adapter) SetConfig(cfg *core.Config) { a.cfg = cfg }

func (a *RP2040Adapter) invertStep(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertStep[axis]
}
func (a *RP2040Adapter) invertDir(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertDir[axis]
}
func (a *RP2040Adapter) invertEnable(axis core.AxisIndex) bool {
	return a.cfg != nil && a.cfg.InvertEnable[axis]
}

func (a *RP2040Adapter) BindAxis(axis core.AxisIndex, step, dir, enable machine.Pin) {
	step.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dir.Configure(machine.PinConfig{Mode: machine.PinOutput})
	enable.Configure(machine.PinConfig{Mode: machine.PinOutput})
	a.axes[axis] = axisPins{step: step, dir: dir, enable: enable, wired: true}
}

// BindAxisPIO wires axis to a PIO-backed pulse generator instead of plain
// GPIO. backend must already be initialized (Init called with its own
// step/dir pins). StepPinWrite(axis, true) becomes a single-step PIO FIFO
// push; the matching StepPinWrite(axis, false) is then a no-op, since the
// state machine already lowers the pin itself once its delay count
// elapses.
func (a *RP2040Adapter) BindAxisPIO(axis core.AxisIndex, backend *piostepper.PIOStepperBackend) {
	a.axes[axis] = axisPins{wired: true, pio: backend}
}

func (a *RP2040Adapter) BindEndstop(axis core.AxisIndex, side core.EndstopSide, pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	ep := &a.endstops[axis]
	if side == core.EndstopMin {
		ep.min, ep.wiredMin = pin, true
	} else {
		ep.max, ep.wiredMax = pin, true
	}
}

func (a *RP2040Adapter) BindProbe(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	a.probePin, a.probeWired = pin, true
}

// BindProbeSource routes ProbeRead through a richer Z-probe mechanism
// (distance sensor or analog threshold) instead of the plain probe pin.
func (a *RP2040Adapter) BindProbeSource(src probeSource) {
	a.probeSrc = src
}

func (a *RP2040Adapter) BindExtruder(extruder uint8, step, dir machine.Pin) {
	step.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dir.Configure(machine.PinConfig{Mode: machine.PinOutput})
	a.extruderStep[extruder] = step
	a.extruderDir[extruder] = dir
	a.extruderWired[extruder] = true
}

func (a *RP2040Adapter) SetExecutor(exec *core.StepExecutor) { a.exec = exec }

func (a *RP2040Adapter) StepPinWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if !p.wired {
		return
	}
	if a.invertStep(axis) {
		level = !level
	}
	if p.pio != nil {
		if level {
			p.pio.Step()
		}
		return
	}
	p.step.Set(level)
}

func (a *RP2040Adapter) DirPinWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if !p.wired {
		return
	}
	if a.invertDir(axis) {
		level = !level
	}
	if p.pio != nil {
		p.pio.SetDirection(level)
		return
	}
	p.dir.Set(level)
}

func (a *RP2040Adapter) EnableWrite(axis core.AxisIndex, level bool) {
	p := &a.axes[axis]
	if a.invertEnable(axis) {
		level = !level
	}
	if p.wired && p.pio == nil {
		p.enable.Set(level)
	}
}

func (a *RP2040Adapter) ExtruderStepPinWrite(extruder uint8, level bool) {
	if int(extruder) < len(a.extruderWired) && a.extruderWired[extruder] {
		a.extruderStep[extruder].Set(level)
	}
}

func (a *RP2040Adapter) ExtruderDirPinWrite(extruder uint8, level bool) {
	if int(extruder) < len(a.extruderWired) && a.extruderWired[extruder] {
		a.extruderDir[extruder].Set(level)
	}
}

func (a *RP2040Adapter) EndstopRead(axis core.AxisIndex, side core.EndstopSide) bool {
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

func (a *RP2040Adapter) ProbeRead() bool {
	if a.probeSrc != nil {
		return a.probeSrc.Triggered()
	}
	return a.probeWired && !a.probePin.Get()
}

func (a *RP2040Adapter) TimerProgramNext(ticksFromNow uint32) {
	if !a.timerArmed {
		return
	}
	a.timer.Next = nil
	a.timer.WakeTime = core.GetTime() + ticksFromNow
	a.timer.Handler = a.tick
	core.ScheduleTimer(&a.timer)
}

func (a *RP2040Adapter) tick(t *core.Timer) uint8 {
	if a.timerArmed && a.exec != nil {
		a.exec.Tick()
	}
	return core.SF_DONE
}

func (a *RP2040Adapter) TimerEnableISR() {
	a.timerArmed = true
	a.TimerProgramNext(core.TimerBaseFrequency / 1000)
}

func (a *RP2040Adapter) TimerDisableISR() {
	a.timerArmed = false
	a.timer.Next = nil
}

func (a *RP2040Adapter) TimerBaseFrequency() uint32 { return core.TimerBaseFrequency }

func (a *RP2040Adapter) IdleHook() { core.ProcessTimers() }
