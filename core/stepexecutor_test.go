package core

import "testing"

// fakeHardware is an in-memory HardwareAdapter test double: it records pin
// writes and lets a test script the endstop levels StepExecutor observes on
// each sample, standing in for the ISR-driven tick pump spec §8 calls for.
type fakeHardware struct {
	stepLevel   [MaxAxes]bool
	dirLevel    [MaxAxes]bool
	enableLevel [MaxAxes]bool

	stepPulses [MaxAxes]int
	extStep    [1]int
	extDir     [1]bool

	endstops [MaxAxes][2]bool
	probe    bool

	lastPeriod uint32
	isrEnabled bool
}

func newFakeHardware() *fakeHardware { return &fakeHardware{} }

func (h *fakeHardware) StepPinWrite(axis AxisIndex, level bool) {
	if level && !h.stepLevel[axis] {
		h.stepPulses[axis]++
	}
	h.stepLevel[axis] = level
}
func (h *fakeHardware) DirPinWrite(axis AxisIndex, level bool)    { h.dirLevel[axis] = level }
func (h *fakeHardware) EnableWrite(axis AxisIndex, level bool)    { h.enableLevel[axis] = level }
func (h *fakeHardware) ExtruderStepPinWrite(e uint8, level bool) {
	if level {
		h.extStep[e]++
	}
}
func (h *fakeHardware) ExtruderDirPinWrite(e uint8, level bool) { h.extDir[e] = level }
func (h *fakeHardware) EndstopRead(axis AxisIndex, side EndstopSide) bool {
	return h.endstops[axis][side]
}
func (h *fakeHardware) ProbeRead() bool                    { return h.probe }
func (h *fakeHardware) TimerProgramNext(ticks uint32)      { h.lastPeriod = ticks }
func (h *fakeHardware) TimerEnableISR()                    { h.isrEnabled = true }
func (h *fakeHardware) TimerDisableISR()                   { h.isrEnabled = false }
func (h *fakeHardware) TimerBaseFrequency() uint32         { return TimerBaseFrequency }
func (h *fakeHardware) IdleHook()                          {}

func newTestExecutor(hw *fakeHardware, src BlockSource, cfg *Config) (*StepExecutor, *PositionRegister, *EndstopMonitor) {
	pos := NewPositionRegister()
	endstops := &EndstopMonitor{}
	mbox := &AdvanceMailbox{}
	exec := NewStepExecutor(hw, src, cfg, pos, endstops, mbox, Cartesian)
	return exec, pos, endstops
}

func defaultConfig() *Config {
	return &Config{
		NumAxes:             4,
		MaxStepFrequency:    500_000,
		DoubleStepFrequency: 100_000,
	}
}

// runToCompletion pumps Tick until the executor goes idle (no block owned),
// bounded so a bug that never terminates fails the test instead of hanging.
func runToCompletion(t *testing.T, exec *StepExecutor, maxTicks int) int {
	t.Helper()
	ticks := 0
	for exec.Busy() && ticks < maxTicks {
		exec.Tick()
		ticks++
	}
	if exec.Busy() {
		t.Fatalf("block did not complete within %d ticks", maxTicks)
	}
	return ticks
}

// TestPureXConstantRate is spec §8's literal boundary scenario: 100 steps at
// a constant 1000 sps produce exactly 100 X pulses and leave every other
// axis untouched.
func TestPureXConstantRate(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, pos, _ := newTestExecutor(hw, src, cfg)

	src.Push(Block{
		StepEventCount:  100,
		Steps:           [MaxAxes]uint32{100, 0, 0, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		AccelerateUntil: 0,
		DecelerateAfter: 100,
	})

	// First tick acquires the block; keep pumping until it completes.
	runToCompletion(t, exec, 1000)

	if hw.stepPulses[AxisX] != 100 {
		t.Fatalf("X pulses = %d, want 100", hw.stepPulses[AxisX])
	}
	if hw.stepPulses[AxisY] != 0 || hw.stepPulses[AxisZ] != 0 {
		t.Fatalf("unexpected pulses on Y/Z: %v", hw.stepPulses)
	}
	if got := pos.Get(AxisX); got != 100 {
		t.Fatalf("count_position[X] = %d, want 100", got)
	}
	if got := pos.Get(AxisY); got != 0 {
		t.Fatalf("count_position[Y] = %d, want 0", got)
	}
	if src.BlocksQueued() {
		t.Fatal("expected queue drained")
	}
}

// TestDiagonalBresenham is spec §8's diagonal scenario: 100 dominant-axis
// steps, 50 subordinate steps, exactly 100 X and 50 Y pulses with Y landing
// on the fair-Bresenham odd ticks starting from -50.
func TestDiagonalBresenham(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, _ := newTestExecutor(hw, src, cfg)

	src.Push(Block{
		StepEventCount:  100,
		Steps:           [MaxAxes]uint32{100, 50, 0, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		AccelerateUntil: 0,
		DecelerateAfter: 100,
	})

	var yPulseTicks []int
	tick := 0
	for exec.Busy() || tick == 0 {
		before := hw.stepPulses[AxisY]
		exec.Tick()
		tick++
		if hw.stepPulses[AxisY] != before {
			yPulseTicks = append(yPulseTicks, tick)
		}
		if tick > 1000 {
			t.Fatal("block never completed")
		}
	}

	if hw.stepPulses[AxisX] != 100 {
		t.Fatalf("X pulses = %d, want 100", hw.stepPulses[AxisX])
	}
	if hw.stepPulses[AxisY] != 50 {
		t.Fatalf("Y pulses = %d, want 50", hw.stepPulses[AxisY])
	}
	// Fair Bresenham with counter initialized at -50 fires on every other
	// step event: 2, 4, 6, ... (the first tick acquires the block and
	// pulses once, so event index 1 is tick 2).
	if len(yPulseTicks) != 50 {
		t.Fatalf("got %d Y pulse ticks, want 50: %v", len(yPulseTicks), yPulseTicks)
	}
}

// TestTrapezoidMonotonicRate exercises spec §8's trapezoid scenario: the
// rate must climb through the accel phase, hold flat during cruise, and
// fall during decel, always staying within [min(initial,final), nominal].
func TestTrapezoidMonotonicRate(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, _ := newTestExecutor(hw, src, cfg)

	b := Block{
		StepEventCount:   1000,
		Steps:            [MaxAxes]uint32{1000, 0, 0, 0, 0, 0},
		InitialRate:      500,
		NominalRate:      2000,
		FinalRate:        500,
		AccelerateUntil:  250,
		DecelerateAfter:  750,
		AccelerationRate: 1 << 24, // Δrate = 1 per tick of accumulated time, scaled
	}
	src.Push(b)

	exec.Tick() // acquire

	var rates []uint32
	for i := 0; i < 1000 && exec.Busy(); i++ {
		rates = append(rates, exec.trap.state.AccStepRate)
		exec.Tick()
	}

	minRate, maxRate := b.FinalRate, b.NominalRate
	for i, r := range rates {
		if r < minRate || r > maxRate {
			t.Fatalf("tick %d: acc_step_rate %d outside [%d,%d]", i, r, minRate, maxRate)
		}
	}

	if hw.stepPulses[AxisX] != 1000 {
		t.Fatalf("X pulses = %d, want 1000", hw.stepPulses[AxisX])
	}
}

// TestEndstopTripTerminatesBlock is spec §8's endstop scenario: with X-MIN
// armed and the block moving X in the negative direction, two consecutive
// tripped samples must terminate the block and latch endstops_trigsteps and
// endstop_hit_bits.
func TestEndstopTripTerminatesBlock(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, pos, endstops := newTestExecutor(hw, src, cfg)
	endstops.Enable(true)

	src.Push(Block{
		StepEventCount:  100,
		Steps:           [MaxAxes]uint32{100, 0, 0, 0, 0, 0},
		DirectionBits:   1 << uint(AxisX), // negative
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		AccelerateUntil: 0,
		DecelerateAfter: 100,
	})

	exec.Tick() // acquire, sets direction

	// Trip the switch starting on the next tick; the debounce needs two
	// consecutive samples before it counts.
	hw.endstops[AxisX][EndstopMin] = true
	exec.Tick() // first sample sees it tripped, old sample was clear: no trip yet
	if !exec.Busy() {
		t.Fatal("block terminated after only one tripped sample")
	}

	posBeforeSecondTrip := pos.Get(AxisX)
	exec.Tick() // second consecutive tripped sample: debounce fires
	if exec.Busy() {
		t.Fatal("expected block to terminate on second consecutive tripped sample")
	}

	if endstops.HitBits()&uint16(BitXMin) == 0 {
		t.Fatal("expected BitXMin set in endstop_hit_bits")
	}
	if got := endstops.TrigSteps(AxisX); got != posBeforeSecondTrip {
		t.Fatalf("endstops_trigsteps[X] = %d, want %d (count_position at trip)", got, posBeforeSecondTrip)
	}
}

// TestEndstopRequiresMatchingDirection: a tripped limit that doesn't match
// the block's commanded direction must never terminate the block.
func TestEndstopRequiresMatchingDirection(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, endstops := newTestExecutor(hw, src, cfg)
	endstops.Enable(true)

	src.Push(Block{
		StepEventCount:  10,
		Steps:           [MaxAxes]uint32{10, 0, 0, 0, 0, 0},
		DirectionBits:   0, // positive direction
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		AccelerateUntil: 0,
		DecelerateAfter: 10,
	})

	exec.Tick() // acquire, direction positive

	hw.endstops[AxisX][EndstopMin] = true
	exec.Tick()
	exec.Tick()

	if !exec.Busy() {
		t.Fatal("X-MIN trip must not terminate a block moving in the positive direction")
	}
}

// TestQuickStopDrainsQueueAndCooldowns verifies spec §8's quick-stop
// scenario: after QuickStop, the source queue is empty, the current block
// is released, and no new block is popped until the drain counter expires.
func TestQuickStopDrainsQueueAndCooldowns(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(4)
	cfg := defaultConfig()
	exec, pos, endstops := newTestExecutor(hw, src, cfg)
	advance := NewAdvanceExecutor(hw, &AdvanceMailbox{}, pos, cfg, func() uint8 { return 0 })
	sc := NewStepperCore(hw, cfg, pos, endstops, exec, advance, nil)

	src.Push(Block{
		StepEventCount:  1000,
		Steps:           [MaxAxes]uint32{1000, 0, 0, 0, 0, 0},
		InitialRate:     500,
		NominalRate:     2000,
		FinalRate:       500,
		AccelerateUntil: 250,
		DecelerateAfter: 750,
	})
	src.Push(Block{StepEventCount: 10, Steps: [MaxAxes]uint32{10, 0, 0, 0, 0, 0}, InitialRate: 1000, NominalRate: 1000, FinalRate: 1000, DecelerateAfter: 10})

	for i := 0; i < 400; i++ {
		exec.Tick()
	}
	if !exec.Busy() {
		t.Fatal("expected the trapezoid block still in flight at tick 400")
	}

	sc.QuickStop()

	if src.BlocksQueued() {
		t.Fatal("expected blocks_queued() == false immediately after QuickStop")
	}
	if exec.Busy() {
		t.Fatal("expected current_block == nil immediately after QuickStop")
	}

	// Push a new block; it must not be popped while the drain guard runs.
	src.Push(Block{StepEventCount: 5, Steps: [MaxAxes]uint32{5, 0, 0, 0, 0, 0}, InitialRate: 1000, NominalRate: 1000, FinalRate: 1000, DecelerateAfter: 5})
	for i := 0; i < quickStopDrainTicks; i++ {
		exec.Tick()
		if exec.Busy() {
			t.Fatalf("block acquired mid-drain at tick %d", i)
		}
	}
	// After the drain counter expires, normal acquisition resumes.
	exec.Tick()
	if !exec.Busy() {
		t.Fatal("expected a block to be acquired once the drain guard clears")
	}
}

// TestStepEventsCompletedBounds checks invariant 3: 0 <= step_events_completed
// <= step_event_count throughout a block's execution, and the tick count to
// completion matches ceil(step_event_count / step_loops) for a low-rate
// block that never enters the multi-step-loop regime.
func TestStepEventsCompletedBounds(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, _ := newTestExecutor(hw, src, cfg)

	src.Push(Block{
		StepEventCount:  37,
		Steps:           [MaxAxes]uint32{37, 0, 0, 0, 0, 0},
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 37,
	})

	ticks := 0
	for exec.Busy() || ticks == 0 {
		exec.Tick()
		ticks++
		if ticks > 1000 {
			t.Fatal("never completed")
		}
		if exec.stepEventsCompleted > 37 {
			t.Fatalf("step_events_completed exceeded step_event_count: %d", exec.stepEventsCompleted)
		}
	}

	// Block acquisition and its first step share the same tick, so a
	// 37-step block at step_loops=1 takes exactly 37 ticks.
	if ticks != 37 {
		t.Fatalf("ticks to completion = %d, want 37", ticks)
	}
}

// TestReprogramFloor verifies invariant 5: the timer period StepExecutor
// programs is never below the hardware-minimum margin, even for a block
// whose nominal rate would otherwise compute a shorter period.
func TestReprogramFloor(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	cfg.MaxStepFrequency = 10_000_000 // deliberately absurd, to try to force a tiny period
	exec, _, _ := newTestExecutor(hw, src, cfg)

	src.Push(Block{
		StepEventCount:  10,
		Steps:           [MaxAxes]uint32{10, 0, 0, 0, 0, 0},
		InitialRate:     9_000_000,
		NominalRate:     9_000_000,
		FinalRate:       9_000_000,
		DecelerateAfter: 10,
	})

	for i := 0; i < 20 && exec.Busy(); i++ {
		exec.Tick()
		if hw.lastPeriod < minReprogramMargin {
			t.Fatalf("reprogrammed period %d below floor %d", hw.lastPeriod, minReprogramMargin)
		}
	}
}

// TestRoundTripSetGetPosition covers invariant 6: set then get returns
// exactly what was set when no block is executing.
func TestRoundTripSetGetPosition(t *testing.T) {
	pos := NewPositionRegister()
	pos.Set(10, -20, 30, 40)

	if pos.Get(AxisX) != 10 || pos.Get(AxisY) != -20 || pos.Get(AxisZ) != 30 || pos.Get(AxisE) != 40 {
		t.Fatalf("round-trip mismatch: %v", pos.Snapshot())
	}
}

// TestPositionRoundTripOppositeBlocks covers invariant 7: a block moving +N
// followed by a block moving -N returns position to its start.
func TestPositionRoundTripOppositeBlocks(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(2)
	cfg := defaultConfig()
	exec, pos, _ := newTestExecutor(hw, src, cfg)

	src.Push(Block{StepEventCount: 50, Steps: [MaxAxes]uint32{50, 0, 0, 0, 0, 0}, InitialRate: 1000, NominalRate: 1000, FinalRate: 1000, DecelerateAfter: 50})
	runToCompletion(t, exec, 1000)
	if pos.Get(AxisX) != 50 {
		t.Fatalf("after +50 block, X = %d, want 50", pos.Get(AxisX))
	}

	src.Push(Block{StepEventCount: 50, Steps: [MaxAxes]uint32{50, 0, 0, 0, 0, 0}, DirectionBits: 1 << uint(AxisX), InitialRate: 1000, NominalRate: 1000, FinalRate: 1000, DecelerateAfter: 50})
	exec.Tick() // acquire second block
	runToCompletion(t, exec, 1000)

	if pos.Get(AxisX) != 0 {
		t.Fatalf("after +50/-50 round trip, X = %d, want 0", pos.Get(AxisX))
	}
}

// TestDualZHomingLocksIndependently is spec §8's dual-Z homing scenario:
// tripping only Z_MIN locks that motor while Z2 keeps pulsing; the block
// terminates only once Z2_MIN also trips.
func TestDualZHomingLocksIndependently(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	cfg.DualZ = true
	exec, _, endstops := newTestExecutor(hw, src, cfg)
	endstops.Enable(true)
	endstops.SetHoming(true)

	src.Push(Block{
		StepEventCount:  200,
		Steps:           [MaxAxes]uint32{0, 0, 200, 0, 0, 0},
		DirectionBits:   1 << uint(AxisZ), // negative
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		DecelerateAfter: 200,
	})

	exec.Tick() // acquire

	hw.endstops[AxisZ][EndstopMin] = true
	exec.Tick()
	exec.Tick() // Z_MIN debounced true now

	if !endstops.AxisLocked(AxisZ) {
		t.Fatal("expected Z motor locked after Z_MIN trip")
	}
	if endstops.AxisLocked(AxisZ2) {
		t.Fatal("Z2 must not be locked yet")
	}
	if !exec.Busy() {
		t.Fatal("block must not terminate until both Z switches trip")
	}

	z2PulsesBefore := hw.stepPulses[AxisZ2]
	exec.Tick()
	if hw.stepPulses[AxisZ2] <= z2PulsesBefore {
		t.Fatal("Z2 should keep pulsing while only Z is locked")
	}

	hw.endstops[AxisZ2][EndstopMin] = true
	exec.Tick()
	exec.Tick() // Z2_MIN debounced true now: both locked, block terminates

	if exec.Busy() {
		t.Fatal("expected block to terminate once both Z switches have tripped")
	}
	if !endstops.AxisLocked(AxisZ2) {
		t.Fatal("expected Z2 motor locked after Z2_MIN trip")
	}
}

// TestBabystepRestoresDirection checks that Babystep leaves the block's own
// direction pin state untouched after emitting its one-shot pulse.
func TestBabystepRestoresDirection(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, pos, _ := newTestExecutor(hw, src, cfg)

	pos.SetDirection(AxisZ, 1)
	hw.DirPinWrite(AxisZ, false)

	exec.Babystep(AxisZ, -1)

	if pos.Direction(AxisZ) != 1 {
		t.Fatalf("direction not restored: got %d, want 1", pos.Direction(AxisZ))
	}
	if hw.dirLevel[AxisZ] != false {
		t.Fatal("dir pin not restored to prior level")
	}
	if hw.stepPulses[AxisZ] != 1 {
		t.Fatalf("expected exactly one babystep pulse, got %d", hw.stepPulses[AxisZ])
	}
	if pos.Get(AxisZ) != -1 {
		t.Fatalf("count_position[Z] after babystep = %d, want -1", pos.Get(AxisZ))
	}
}

// TestIdleReprogramsAt1kHz checks that an empty source reprograms the timer
// at the documented 1kHz idle poll instead of stalling.
func TestIdleReprogramsAt1kHz(t *testing.T) {
	hw := newFakeHardware()
	src := NewBlockQueue(1)
	cfg := defaultConfig()
	exec, _, _ := newTestExecutor(hw, src, cfg)

	exec.Tick()
	if hw.lastPeriod != TimerBaseFrequency/1000 {
		t.Fatalf("idle period = %d, want %d", hw.lastPeriod, TimerBaseFrequency/1000)
	}
	if exec.Busy() {
		t.Fatal("expected no block acquired from an empty source")
	}
}
