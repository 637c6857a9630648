package core

import (
	"strings"
	"testing"
)

func newTestStepperCore(hw *fakeHardware, src BlockSource, cfg *Config) (*StepperCore, *PositionRegister, *EndstopMonitor, *StepExecutor) {
	pos := NewPositionRegister()
	endstops := &EndstopMonitor{}
	mbox := &AdvanceMailbox{}
	exec := NewStepExecutor(hw, src, cfg, pos, endstops, mbox, Cartesian)
	advance := NewAdvanceExecutor(hw, mbox, pos, cfg, func() uint8 { return 0 })
	sc := NewStepperCore(hw, cfg, pos, endstops, exec, advance, nil)
	return sc, pos, endstops, exec
}

func TestCheckHitEndstopsFormatsAndClears(t *testing.T) {
	hw := newFakeHardware()
	cfg := defaultConfig()
	cfg.StepsPerUnit[AxisX] = 80
	sc, _, endstops, _ := newTestStepperCore(hw, NewBlockQueue(1), cfg)

	endstops.hitBits = uint16(BitXMin)
	endstops.trigSteps[AxisX] = 160 // 2mm at 80 steps/mm

	msgs := sc.CheckHitEndstops()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "x_min") || !strings.Contains(msgs[0], "2.0000") {
		t.Fatalf("unexpected message set: %v", msgs)
	}

	if endstops.HitBits() != 0 {
		t.Fatal("expected CheckHitEndstops to clear hit bits")
	}
	if got := sc.CheckHitEndstops(); got != nil {
		t.Fatalf("expected nil on second call with no new trip, got %v", got)
	}
}

func TestSynchronizeWaitsForQueueAndBusy(t *testing.T) {
	hw := newFakeHardware()
	cfg := defaultConfig()
	src := NewBlockQueue(1)
	sc, _, _, exec := newTestStepperCore(hw, src, cfg)
	src.Push(Block{StepEventCount: 5, Steps: [MaxAxes]uint32{5, 0, 0, 0, 0, 0}, InitialRate: 1000, NominalRate: 1000, FinalRate: 1000, DecelerateAfter: 5})

	idleCalls := 0
	sc.Synchronize(src, func() {
		idleCalls++
		exec.Tick()
	})

	if src.BlocksQueued() || exec.Busy() {
		t.Fatal("Synchronize returned before the source drained")
	}
	if idleCalls == 0 {
		t.Fatal("expected Synchronize to invoke the idle hook at least once")
	}
}

func TestFinishAndDisableDeassertsEveryEnablePin(t *testing.T) {
	hw := newFakeHardware()
	cfg := defaultConfig()
	src := NewBlockQueue(1)
	sc, _, _, _ := newTestStepperCore(hw, src, cfg)

	for axis := AxisIndex(0); axis < MaxAxes; axis++ {
		hw.enableLevel[axis] = true
	}

	sc.FinishAndDisable(src, func() {})

	for axis := AxisIndex(0); axis < MaxAxes; axis++ {
		if hw.enableLevel[axis] {
			t.Fatalf("axis %d enable pin still asserted after FinishAndDisable", axis)
		}
	}
}

func TestGetPositionMMConvertsUsingStepsPerUnit(t *testing.T) {
	hw := newFakeHardware()
	cfg := defaultConfig()
	cfg.StepsPerUnit[AxisX] = 80
	sc, pos, _, _ := newTestStepperCore(hw, NewBlockQueue(1), cfg)
	pos.Set(400, 0, 0, 0)

	if got := sc.GetPositionMM(AxisX); got != 5.0 {
		t.Fatalf("GetPositionMM(X) = %v, want 5.0", got)
	}
	// Zero StepsPerUnit must not divide by zero.
	if got := sc.GetPositionMM(AxisY); got != 0 {
		t.Fatalf("GetPositionMM(Y) with zero StepsPerUnit = %v, want 0", got)
	}
}
