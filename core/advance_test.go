package core

import "testing"

func TestAdvanceMailboxTakeOneDrainsSignedBacklog(t *testing.T) {
	var m AdvanceMailbox
	m.Add(3)
	m.Add(-1)
	if got := m.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	var drained []int8
	for m.Pending() != 0 {
		drained = append(drained, m.TakeOne())
	}
	if len(drained) != 2 {
		t.Fatalf("expected 2 drains for a backlog of 2, got %d: %v", len(drained), drained)
	}
	for _, d := range drained {
		if d != 1 {
			t.Fatalf("expected +1 steps draining a positive backlog, got %d", d)
		}
	}
	if got := m.TakeOne(); got != 0 {
		t.Fatalf("TakeOne on empty mailbox = %d, want 0", got)
	}
}

func TestAdvanceMailboxNegativeBacklog(t *testing.T) {
	var m AdvanceMailbox
	m.Add(-2)
	if got := m.TakeOne(); got != -1 {
		t.Fatalf("TakeOne() = %d, want -1", got)
	}
	if got := m.Pending(); got != -1 {
		t.Fatalf("Pending() = %d, want -1", got)
	}
}

func TestAdvanceExecutorPulsesFromMailbox(t *testing.T) {
	hw := newFakeHardware()
	mbox := &AdvanceMailbox{}
	pos := NewPositionRegister()
	cfg := &Config{PressureAdvanceEnabled: true}
	a := NewAdvanceExecutor(hw, mbox, pos, cfg, func() uint8 { return 0 })

	mbox.Add(3)
	a.running = true
	timer := &Timer{}
	for i := 0; i < 3; i++ {
		a.tick(timer)
	}

	if hw.extStep[0] != 3 {
		t.Fatalf("extruder step pulses = %d, want 3", hw.extStep[0])
	}
	if got := pos.Get(AxisE); got != 3 {
		t.Fatalf("count_position[E] = %d, want 3", got)
	}
	if mbox.Pending() != 0 {
		t.Fatalf("expected mailbox drained, got pending=%d", mbox.Pending())
	}
}

func TestAdvanceExecutorNoopWhenDisabled(t *testing.T) {
	hw := newFakeHardware()
	mbox := &AdvanceMailbox{}
	pos := NewPositionRegister()
	cfg := &Config{PressureAdvanceEnabled: false}
	a := NewAdvanceExecutor(hw, mbox, pos, cfg, func() uint8 { return 0 })

	mbox.Add(5)
	a.running = true
	timer := &Timer{}
	a.tick(timer)

	if hw.extStep[0] != 0 {
		t.Fatal("expected no extruder pulses while pressure advance is disabled")
	}
	if mbox.Pending() != 5 {
		t.Fatalf("expected mailbox untouched while disabled, got %d", mbox.Pending())
	}
}
