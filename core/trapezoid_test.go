package core

import "testing"

func TestMulHi32RoundedMultiplyHigh(t *testing.T) {
	// 1<<31 * 2 = 1<<32 exactly; the rounded multiply-high of two 32.32
	// operands should recover the integer part, 1.
	if got := mulHi32(1<<31, 2); got != 1 {
		t.Fatalf("mulHi32(1<<31, 2) = %d, want 1", got)
	}
	if got := mulHi32(0, 0xFFFFFFFF); got != 0 {
		t.Fatalf("mulHi32(0, max) = %d, want 0", got)
	}
}

func TestRateToPeriodStepLoopSelection(t *testing.T) {
	cfg := &Config{MaxStepFrequency: 1_000_000, DoubleStepFrequency: 10_000}

	_, loops := rateToPeriod(5_000, cfg)
	if loops != 1 {
		t.Fatalf("loops at 5000sps = %d, want 1", loops)
	}

	_, loops = rateToPeriod(20_000, cfg)
	if loops != 2 {
		t.Fatalf("loops at 20000sps (> double) = %d, want 2", loops)
	}

	cfg.HighSpeedStepping = true
	_, loops = rateToPeriod(30_000, cfg)
	if loops != 4 {
		t.Fatalf("loops at 30000sps with high-speed stepping = %d, want 4", loops)
	}
}

func TestRateToPeriodClampsToMaxFrequency(t *testing.T) {
	cfg := &Config{MaxStepFrequency: 1000, DoubleStepFrequency: 1_000_000}
	period, loops := rateToPeriod(1_000_000, cfg)
	if loops != 1 {
		t.Fatalf("loops = %d, want 1 below double-step threshold", loops)
	}
	want := uint32(TimerBaseFrequency / 1000)
	if period != want {
		t.Fatalf("period = %d, want %d (rate clamped to MaxStepFrequency)", period, want)
	}
}

func TestTrapezoidAccelDecelTieBreak(t *testing.T) {
	cfg := &Config{MaxStepFrequency: 1_000_000, DoubleStepFrequency: 1_000_000}
	b := &Block{
		InitialRate:      500,
		NominalRate:      2000,
		FinalRate:        500,
		AccelerateUntil:  100,
		DecelerateAfter:  200,
		AccelerationRate: 1 << 30,
	}
	var g TrapezoidGenerator

	// At exactly AccelerateUntil, the accel branch applies (comparison is
	// <=): with nonzero AccelerationTime the computed rate must move off
	// InitialRate, not jump straight to the cruise passthrough.
	g.Reset(b, cfg)
	g.state.AccelerationTime = 1 << 20
	g.Advance(b, 100, cfg)
	if g.state.AccStepRate <= b.InitialRate {
		t.Fatalf("expected accel branch to raise rate above InitialRate, got %d", g.state.AccStepRate)
	}

	// Strictly after DecelerateAfter, decel applies: with nonzero
	// DecelerationTime the rate must move off NominalRate.
	g.state.AccStepRate = b.NominalRate
	g.state.DecelerationTime = 1 << 20
	g.Advance(b, 201, cfg)
	if g.state.AccStepRate >= b.NominalRate {
		t.Fatalf("expected decel branch to lower rate below NominalRate, got %d", g.state.AccStepRate)
	}

	// At exactly DecelerateAfter, cruise applies (comparison is strict >).
	g.state.AccStepRate = 999
	g.Advance(b, 200, cfg)
	if g.state.AccStepRate != b.NominalRate {
		t.Fatalf("expected cruise at DecelerateAfter boundary: got %d, want %d", g.state.AccStepRate, b.NominalRate)
	}
}

func TestTrapezoidDecelUnderflowFallsBackToFinalRate(t *testing.T) {
	cfg := &Config{MaxStepFrequency: 1_000_000, DoubleStepFrequency: 1_000_000}
	b := &Block{
		InitialRate:      500,
		NominalRate:      2000,
		FinalRate:        800,
		AccelerateUntil:  0,
		DecelerateAfter:  10,
		AccelerationRate: 0xFFFFFFFF, // huge delta, guaranteed to underflow
	}
	var g TrapezoidGenerator
	g.Reset(b, cfg)
	g.state.AccStepRate = 900
	g.state.DecelerationTime = 1000

	g.Advance(b, 11, cfg)
	if g.state.AccStepRate != b.FinalRate {
		t.Fatalf("expected fallback to FinalRate on underflow, got %d", g.state.AccStepRate)
	}
}

func TestIntegrateAdvanceClampsAndReturnsDelta(t *testing.T) {
	cfg := &Config{MaxStepFrequency: 1_000_000, DoubleStepFrequency: 1_000_000}
	b := &Block{
		AdvanceEnabled: true,
		InitialAdvance: 0,
		FinalAdvance:   2560, // 10 << 8
		AdvanceRate:    100,
	}
	var g TrapezoidGenerator
	g.Reset(b, cfg)

	var totalDelta int32
	for i := 0; i < 100; i++ {
		totalDelta += g.IntegrateAdvance(b, phaseAccel)
	}
	if g.state.Advance > b.FinalAdvance {
		t.Fatalf("advance accumulator exceeded FinalAdvance clamp: %d > %d", g.state.Advance, b.FinalAdvance)
	}
	if totalDelta != g.state.OldAdvance {
		t.Fatalf("sum of posted deltas %d != final OldAdvance %d", totalDelta, g.state.OldAdvance)
	}

	if got := g.IntegrateAdvance(b, phaseCruise); got != 0 {
		t.Fatalf("cruise phase must not change advance, got delta %d", got)
	}
}

func TestIntegrateAdvanceDisabledIsNoop(t *testing.T) {
	var g TrapezoidGenerator
	b := &Block{AdvanceEnabled: false}
	if got := g.IntegrateAdvance(b, phaseAccel); got != 0 {
		t.Fatalf("expected 0 delta when advance disabled, got %d", got)
	}
}
