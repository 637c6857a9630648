package core

import "testing"

// TestProbeTripDoesNotTerminateByDefault covers the resolved Open Question
// in spec §9: a bare Z-probe trigger records the trip bit but does not
// force step_events_completed unless the probe is routed as the homing
// endstop for the axis currently homing.
func TestProbeTripDoesNotTerminateByDefault(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, endstops := newTestExecutor(hw, src, cfg)
	endstops.Enable(true)

	src.Push(Block{
		StepEventCount:  50,
		Steps:           [MaxAxes]uint32{0, 0, 50, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 50,
	})

	exec.Tick() // acquire
	hw.probe = true
	exec.Tick()
	exec.Tick() // probe debounced true

	if !exec.Busy() {
		t.Fatal("bare probe trigger must not terminate the block by default")
	}
	if endstops.HitBits()&uint16(BitZProbe) == 0 {
		t.Fatal("expected BitZProbe latched in endstop_hit_bits")
	}
}

// TestProbeTripTerminatesWhenRoutedAsHoming covers the other half of the
// same resolved Open Question: once RouteProbeAsHoming is armed, a probe
// trip does force block termination.
func TestProbeTripTerminatesWhenRoutedAsHoming(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, endstops := newTestExecutor(hw, src, cfg)
	endstops.Enable(true)
	endstops.SetProbeRoutedAsHoming(true)

	src.Push(Block{
		StepEventCount:  50,
		Steps:           [MaxAxes]uint32{0, 0, 50, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 50,
	})

	exec.Tick() // acquire
	hw.probe = true
	exec.Tick()
	exec.Tick() // probe debounced true

	if exec.Busy() {
		t.Fatal("expected block to terminate once probe is routed as the homing endstop")
	}
}

// TestEndstopDisabledNeverTrips checks that a disarmed EndstopMonitor never
// samples or trips, regardless of pin state.
func TestEndstopDisabledNeverTrips(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, endstops := newTestExecutor(hw, src, cfg)
	// endstops.Enable never called: disarmed by default.

	src.Push(Block{
		StepEventCount:  10,
		Steps:           [MaxAxes]uint32{10, 0, 0, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 10,
	})

	hw.endstops[AxisX][EndstopMin] = true
	runToCompletion(t, exec, 100)

	if endstops.HitBits() != 0 {
		t.Fatal("disarmed EndstopMonitor must never latch a trip")
	}
}

// TestDualXCarriageOwnershipGating checks that only the carriage owning the
// block's active extruder is checked for a trip.
func TestDualXCarriageOwnershipGating(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	cfg.DualX = true
	pos := NewPositionRegister()
	endstops := &EndstopMonitor{}
	endstops.Enable(true)
	mbox := &AdvanceMailbox{}
	exec := NewStepExecutor(hw, src, cfg, pos, endstops, mbox, DualXCarriage)

	src.Push(Block{
		StepEventCount:  10,
		Steps:           [MaxAxes]uint32{10, 0, 0, 0, 0, 0},
		ActiveExtruder:  0, // carriage 0 owns AxisX, not AxisX2
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 10,
	})

	// Trip the X2 endstop, which the active carriage (extruder 0 -> AxisX)
	// does not own.
	hw.endstops[AxisX2][EndstopMin] = true
	runToCompletion(t, exec, 100)

	if endstops.HitBits()&uint16(BitX2Min) != 0 {
		t.Fatal("X2 endstop must not be consulted for a block owned by carriage X")
	}
}
