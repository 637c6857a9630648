package main

import (
	"fmt"

	"stepexec/core"
)

// simulatedAdapter implements core.HardwareAdapter entirely in memory: step
// pulses just increment counters instead of toggling GPIO, and the timer
// methods are no-ops because the host loop drives Tick directly rather than
// through a real ISR. It plays the same "thin hardware adapter" role
// targets/rp2040 and targets/rp2350 play, minus any actual silicon.
type simulatedAdapter struct {
	verbose bool

	steps    [core.MaxAxes]uint32
	dir      [core.MaxAxes]bool
	enabled  [core.MaxAxes]bool
	endstops [core.MaxAxes][2]bool
	probe    bool

	extSteps [4]uint32
}

func newSimulatedAdapter(verbose bool) *simulatedAdapter {
	return &simulatedAdapter{verbose: verbose}
}

func (s *simulatedAdapter) StepPinWrite(axis core.AxisIndex, level bool) {
	if level {
		s.steps[axis]++
		if s.verbose {
			fmt.Printf("axis %d step #%d\n", axis, s.steps[axis])
		}
	}
}

func (s *simulatedAdapter) DirPinWrite(axis core.AxisIndex, level bool) { s.dir[axis] = level }
func (s *simulatedAdapter) EnableWrite(axis core.AxisIndex, level bool) { s.enabled[axis] = level }

func (s *simulatedAdapter) ExtruderStepPinWrite(extruder uint8, level bool) {
	if level && int(extruder) < len(s.extSteps) {
		s.extSteps[extruder]++
	}
}
func (s *simulatedAdapter) ExtruderDirPinWrite(extruder uint8, level bool) {}

func (s *simulatedAdapter) EndstopRead(axis core.AxisIndex, side core.EndstopSide) bool {
	return s.endstops[axis][side]
}
func (s *simulatedAdapter) ProbeRead() bool { return s.probe }

func (s *simulatedAdapter) TimerProgramNext(ticksFromNow uint32) {}
func (s *simulatedAdapter) TimerEnableISR()                      {}
func (s *simulatedAdapter) TimerDisableISR()                     {}
func (s *simulatedAdapter) TimerBaseFrequency() uint32           { return core.TimerBaseFrequency }

func (s *simulatedAdapter) IdleHook() {}
