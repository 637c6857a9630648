package core

// EndstopSide distinguishes the minimum-travel and maximum-travel switches
// for an axis.
type EndstopSide uint8

const (
	EndstopMin EndstopSide = iota
	EndstopMax
)

// HardwareAdapter is the contract StepExecutor drives every tick. It is the
// "thin hardware adapter specified only by its contract" boundary: pin-level
// drivers, PIO backends, and simulated test doubles all implement this
// directly, none of them through core.
type HardwareAdapter interface {
	StepPinWrite(axis AxisIndex, level bool)
	DirPinWrite(axis AxisIndex, level bool)
	EnableWrite(axis AxisIndex, level bool)

	ExtruderStepPinWrite(extruder uint8, level bool)
	ExtruderDirPinWrite(extruder uint8, level bool)

	EndstopRead(axis AxisIndex, side EndstopSide) bool
	ProbeRead() bool

	TimerProgramNext(ticksFromNow uint32)
	TimerEnableISR()
	TimerDisableISR()
	TimerBaseFrequency() uint32

	IdleHook()
}
