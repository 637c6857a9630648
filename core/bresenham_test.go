package core

import "testing"

func TestBresenhamResetInitializesToHalfNegative(t *testing.T) {
	var c BresenhamCounters
	b := &Block{StepEventCount: 100}
	c.Reset(b)
	for axis := AxisIndex(0); axis < MaxAxes; axis++ {
		if c.counter[axis] != -50 {
			t.Fatalf("counter[%d] = %d, want -50", axis, c.counter[axis])
		}
	}
}

func TestBresenhamDominantAxisPulsesEveryTick(t *testing.T) {
	var c BresenhamCounters
	b := &Block{StepEventCount: 10, Steps: [MaxAxes]uint32{10, 0, 0, 0, 0, 0}}
	c.Reset(b)
	for i := 0; i < 10; i++ {
		if !c.Pulse(AxisX, b) {
			t.Fatalf("dominant axis failed to pulse on iteration %d", i)
		}
	}
}

func TestBresenhamSubordinateAxisFairSpacing(t *testing.T) {
	var c BresenhamCounters
	b := &Block{StepEventCount: 4, Steps: [MaxAxes]uint32{4, 1, 0, 0, 0, 0}}
	c.Reset(b)

	var pulses []bool
	for i := 0; i < 4; i++ {
		c.Pulse(AxisX, b)
		pulses = append(pulses, c.Pulse(AxisY, b))
	}

	count := 0
	for _, p := range pulses {
		if p {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 Y pulse across 4 step events, got %d (%v)", count, pulses)
	}
}

func TestBresenhamZeroStepAxisNeverPulses(t *testing.T) {
	var c BresenhamCounters
	b := &Block{StepEventCount: 100, Steps: [MaxAxes]uint32{100, 0, 0, 0, 0, 0}}
	c.Reset(b)
	for i := 0; i < 100; i++ {
		c.Pulse(AxisX, b)
		if c.Pulse(AxisY, b) {
			t.Fatalf("zero-step axis Y pulsed on iteration %d", i)
		}
	}
}
