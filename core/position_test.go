package core

import "testing"

func TestPositionRegisterDefaultsToPositiveDirection(t *testing.T) {
	p := NewPositionRegister()
	for axis := AxisIndex(0); axis < MaxAxes; axis++ {
		if p.Direction(axis) != 1 {
			t.Fatalf("axis %d default direction = %d, want 1", axis, p.Direction(axis))
		}
	}
}

func TestPositionRegisterAdvanceFollowsDirection(t *testing.T) {
	p := NewPositionRegister()
	p.SetDirection(AxisX, -1)
	p.Advance(AxisX)
	p.Advance(AxisX)
	if got := p.Get(AxisX); got != -2 {
		t.Fatalf("Get(X) = %d, want -2", got)
	}
}

func TestPositionRegisterBumpIgnoresRecordedDirection(t *testing.T) {
	p := NewPositionRegister()
	p.SetDirection(AxisZ, 1)
	p.Bump(AxisZ, -1)
	if got := p.Get(AxisZ); got != -1 {
		t.Fatalf("Bump ignored explicit direction: Get(Z) = %d, want -1", got)
	}
	// The recorded block direction must be untouched by Bump.
	if p.Direction(AxisZ) != 1 {
		t.Fatalf("Bump must not mutate the recorded direction, got %d", p.Direction(AxisZ))
	}
}

func TestPositionRegisterSnapshotIsConsistent(t *testing.T) {
	p := NewPositionRegister()
	p.Set(1, 2, 3, 4)
	snap := p.Snapshot()
	if snap[AxisX] != 1 || snap[AxisY] != 2 || snap[AxisZ] != 3 || snap[AxisE] != 4 {
		t.Fatalf("Snapshot = %v, want [1 2 3 4 ...]", snap)
	}
}
