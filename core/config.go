package core

// KinematicsKind names the strategy StepExecutor resolves once at boot
// (spec's "preprocessor feature matrix" redesigned as a strategy).
type KinematicsKind uint8

const (
	KinematicsCartesian KinematicsKind = iota
	KinematicsCoreXY
	KinematicsCoreXZ
	KinematicsDelta
	KinematicsDualXCarriage
)

// Config carries the boot-time constants spec §6 treats as compile-time
// configuration: axis count, polarity, kinematics mode, step-rate ceilings,
// extruder count, and whether pressure advance is active.
type Config struct {
	NumAxes uint8

	InvertStep   [MaxAxes]bool
	InvertDir    [MaxAxes]bool
	InvertEnable [MaxAxes]bool

	EndstopMinInvert [MaxAxes]bool
	EndstopMaxInvert [MaxAxes]bool

	Kinematics KinematicsKind

	MaxStepFrequency    uint32
	DoubleStepFrequency uint32
	HighSpeedStepping   bool

	NumExtruders           uint8
	PressureAdvanceEnabled bool

	DualZ           bool
	DualX           bool
	DeferZEnable    bool
	LateEnableTicks uint32

	// StepsPerUnit converts a raw step count to physical units (mm or
	// degrees) per axis, used only for reporting (check_hit_endstops
	// messages, GetPositionMM) — never consulted by the ISR itself.
	StepsPerUnit [MaxAxes]float64
}
