package core

// PositionRegister is the atomic stepper-space coordinate counter.
// Mutated by the step ISR only; foreground readers go through a critical
// section since a platform's word reads are not assumed atomic against a
// preempting ISR.
type PositionRegister struct {
	countPosition  [MaxAxes]int64
	countDirection [MaxAxes]int8
}

// NewPositionRegister returns a zeroed register with all axes defaulted to
// the positive direction.
func NewPositionRegister() *PositionRegister {
	p := &PositionRegister{}
	for i := range p.countDirection {
		p.countDirection[i] = 1
	}
	return p
}

// SetDirection records the direction a block commands for axis; called
// from the ISR at block acquisition.
func (p *PositionRegister) SetDirection(axis AxisIndex, dir int8) {
	p.countDirection[axis] = dir
}

// Direction returns the most recently set direction for axis.
func (p *PositionRegister) Direction(axis AxisIndex) int8 {
	return p.countDirection[axis]
}

// Advance moves axis's position by one step in its current direction.
// ISR-only; not critical-section protected, since it only ever runs on the
// step ISR itself.
func (p *PositionRegister) Advance(axis AxisIndex) {
	p.countPosition[axis] += int64(p.countDirection[axis])
}

// Bump moves axis's position by one step in an explicit direction,
// independent of the recorded block direction — used by babystep, which
// temporarily overrides direction without disturbing it.
func (p *PositionRegister) Bump(axis AxisIndex, dir int8) {
	p.countPosition[axis] += int64(dir)
}

// Get returns axis's position under a critical section.
func (p *PositionRegister) Get(axis AxisIndex) int64 {
	state := disableInterrupts()
	v := p.countPosition[axis]
	restoreInterrupts(state)
	return v
}

// Set atomically assigns X/Y/Z/E positions, disabling interrupts across the
// whole multi-word write.
func (p *PositionRegister) Set(x, y, z, e int64) {
	state := disableInterrupts()
	p.countPosition[AxisX] = x
	p.countPosition[AxisY] = y
	p.countPosition[AxisZ] = z
	p.countPosition[AxisE] = e
	restoreInterrupts(state)
}

// SetE atomically assigns the extruder position.
func (p *PositionRegister) SetE(e int64) {
	state := disableInterrupts()
	p.countPosition[AxisE] = e
	restoreInterrupts(state)
}

// Snapshot returns every axis's position under a single critical section,
// for callers that need a consistent multi-axis read (e.g. an endstop trip
// report).
func (p *PositionRegister) Snapshot() [MaxAxes]int64 {
	state := disableInterrupts()
	v := p.countPosition
	restoreInterrupts(state)
	return v
}
