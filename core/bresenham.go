package core

// BresenhamCounters carries the per-axis line-tracing accumulator for one
// block. The dominant axis is implicit: it is whichever axis has
// Steps[axis] == StepEventCount, and always pulses every tick.
type BresenhamCounters struct {
	counter [MaxAxes]int64
}

// Reset initializes every axis accumulator to -StepEventCount/2 so the
// first step on a subordinate axis lands near its fair Bresenham position
// rather than on tick 1.
func (c *BresenhamCounters) Reset(b *Block) {
	half := int64(b.StepEventCount) / 2
	for i := range c.counter {
		c.counter[i] = -half
	}
}

// Pulse advances axis's accumulator by its step count and reports whether
// this step event should emit a pulse on that axis.
func (c *BresenhamCounters) Pulse(axis AxisIndex, b *Block) bool {
	c.counter[axis] += int64(b.Steps[axis])
	if c.counter[axis] > 0 {
		c.counter[axis] -= int64(b.StepEventCount)
		return true
	}
	return false
}
