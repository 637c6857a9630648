package core

import "testing"

func TestBlockQueuePushPeekDiscard(t *testing.T) {
	q := NewBlockQueue(2)

	if q.PeekCurrentBlock() != nil {
		t.Fatal("expected nil peek on empty queue")
	}
	if q.BlocksQueued() {
		t.Fatal("expected BlocksQueued false on empty queue")
	}

	b1 := Block{StepEventCount: 1}
	b2 := Block{StepEventCount: 2}

	if !q.Push(b1) {
		t.Fatal("expected first push to succeed")
	}
	if !q.Push(b2) {
		t.Fatal("expected second push to succeed")
	}
	if q.Push(Block{StepEventCount: 3}) {
		t.Fatal("expected push on full queue to fail")
	}

	if !q.BlocksQueued() {
		t.Fatal("expected BlocksQueued true")
	}
	if got := q.PeekCurrentBlock(); got == nil || got.StepEventCount != 1 {
		t.Fatalf("expected to peek block 1, got %+v", got)
	}

	q.DiscardCurrentBlock()
	if got := q.PeekCurrentBlock(); got == nil || got.StepEventCount != 2 {
		t.Fatalf("expected to peek block 2, got %+v", got)
	}

	q.DiscardCurrentBlock()
	if q.PeekCurrentBlock() != nil {
		t.Fatal("expected nil peek after draining queue")
	}
	if q.BlocksQueued() {
		t.Fatal("expected BlocksQueued false after draining queue")
	}

	// Discard on an empty queue must be a no-op, not a panic.
	q.DiscardCurrentBlock()
}

func TestBlockQueueLenCapAndWraparound(t *testing.T) {
	q := NewBlockQueue(3)

	if q.Cap() != 3 {
		t.Fatalf("Cap() = %d, want 3", q.Cap())
	}

	for i := uint32(0); i < 3; i++ {
		if !q.Push(Block{StepEventCount: i}) {
			t.Fatalf("push %d failed", i)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	q.DiscardCurrentBlock()
	q.DiscardCurrentBlock()
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}

	// Push past the point where head/tail wrap around the backing array.
	if !q.Push(Block{StepEventCount: 10}) {
		t.Fatal("expected push to succeed")
	}
	if !q.Push(Block{StepEventCount: 11}) {
		t.Fatal("expected push to succeed")
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	var got []uint32
	for q.BlocksQueued() {
		got = append(got, q.PeekCurrentBlock().StepEventCount)
		q.DiscardCurrentBlock()
	}
	want := []uint32{2, 10, 11}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBlockQueueClear(t *testing.T) {
	q := NewBlockQueue(2)
	q.Push(Block{StepEventCount: 1})
	q.Push(Block{StepEventCount: 2})

	q.Clear()

	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Clear", q.Len())
	}
	if q.BlocksQueued() {
		t.Fatal("expected BlocksQueued false after Clear")
	}
	if !q.Push(Block{StepEventCount: 3}) {
		t.Fatal("expected push to succeed after Clear")
	}
}
