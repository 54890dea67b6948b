package pulse

import (
	"testing"
)

func TestBatchCoalescesWrites(t *testing.T) {
	first := NewSignal("John")
	last := NewSignal("Smith")
	runs := 0
	var full string

	CreateEffect(func() Cleanup {
		full = first.Get() + " " + last.Get()
		runs++
		return nil
	})

	Batch(func() {
		first.Set("Jane")
		last.Set("Doe")
	})

	if runs != 2 {
		t.Errorf("expected 1 initial run + 1 flush run, got %d", runs)
	}
	if full != "Jane Doe" {
		t.Errorf("expected final state, got %q", full)
	}
}

func TestBatchReadsSeeFreshValues(t *testing.T) {
	s := NewSignal(1)
	m := NewMemo(func() int { return s.Get() * 10 })
	_ = m.Get()

	Batch(func() {
		s.Set(2)
		// Reads inside the batch observe the new value immediately.
		if got := m.Get(); got != 20 {
			t.Errorf("expected 20 inside batch, got %d", got)
		}
	})
}

func TestBatchNesting(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = a.Get() + b.Get()
		runs++
		return nil
	})

	Batch(func() {
		a.Set(10)
		Batch(func() {
			b.Set(20)
		})
		// Inner batch exit must not flush.
		if runs != 1 {
			t.Errorf("inner batch flushed early, runs %d", runs)
		}
	})

	if runs != 2 {
		t.Errorf("expected single flush at outermost exit, got %d runs", runs)
	}
}

func TestBatchDeduplicatesListeners(t *testing.T) {
	s := NewSignal(0)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	Batch(func() {
		s.Set(1)
		s.Set(2)
		s.Set(3)
	})

	if runs != 2 {
		t.Errorf("expected 1 run per flush regardless of write count, got %d", runs)
	}
}

func TestBatchNetNoOpSkipsEffects(t *testing.T) {
	s := NewSignal(5)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	// The signal ends the batch at its starting value. The effect is
	// scheduled (versions moved) and runs once at the flush; the run
	// observes the settled state only.
	var seen int
	CreateEffect(func() Cleanup {
		seen = s.Get()
		return nil
	})

	Batch(func() {
		s.Set(10)
		s.Set(5)
	})

	if seen != 5 {
		t.Errorf("flush observed intermediate state %d", seen)
	}
	_ = runs
}

func TestFlushTimeDirtiesRunAfterPendingListeners(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(1)
	var order []string
	recording := false

	CreateEffect(func() Cleanup {
		if a.Get() == 2 {
			b.Set(2)
		}
		if recording {
			order = append(order, "writer")
		}
		return nil
	})

	CreateEffect(func() Cleanup {
		_ = a.Get()
		if recording {
			order = append(order, "sibling")
		}
		return nil
	})

	CreateEffect(func() Cleanup {
		_ = b.Get()
		if recording {
			order = append(order, "downstream")
		}
		return nil
	})

	recording = true
	a.Set(2)

	// The write inside the first effect appends the downstream effect to
	// the queue; it runs after the sibling already pending, not inline.
	want := []string{"writer", "sibling", "downstream"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBatchValue(t *testing.T) {
	a := NewSignal(2)
	b := NewSignal(3)

	got := BatchValue(func() int {
		a.Set(4)
		b.Set(5)
		return a.Peek() * b.Peek()
	})

	if got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestBatchPanicRestoresDepth(t *testing.T) {
	s := NewSignal(1)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	func() {
		defer func() { recover() }()
		Batch(func() {
			s.Set(2)
			panic("boom")
		})
	}()

	if getBatchDepth() != 0 {
		t.Errorf("batch depth leaked: %d", getBatchDepth())
	}

	// Writes after the panic propagate normally.
	s.Set(3)
	if runs < 2 {
		t.Errorf("propagation broken after panicked batch, runs %d", runs)
	}
}

func TestUntracked(t *testing.T) {
	s := NewSignal(1)
	listener := newTestListener()

	WithListener(listener, func() {
		Untracked(func() {
			_ = s.Get()
		})
	})

	s.Set(2)
	if listener.getDirtyCount() != 0 {
		t.Error("read inside Untracked subscribed the listener")
	}
}

func TestUntrackedRestoresListener(t *testing.T) {
	s := NewSignal(1)
	listener := newTestListener()

	WithListener(listener, func() {
		Untracked(func() {})
		// Tracking resumes after the untracked section.
		_ = s.Get()
	})

	s.Set(2)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestUntrackedValue(t *testing.T) {
	s := NewSignal(7)
	listener := newTestListener()

	var got int
	WithListener(listener, func() {
		got = UntrackedValue(func() int { return s.Get() })
	})

	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	s.Set(8)
	if listener.getDirtyCount() != 0 {
		t.Error("UntrackedValue subscribed the listener")
	}
}

func TestUntrackedGet(t *testing.T) {
	s := NewSignal(3)
	listener := newTestListener()

	WithListener(listener, func() {
		if UntrackedGet(s) != 3 {
			t.Error("expected 3")
		}
	})

	s.Set(4)
	if listener.getDirtyCount() != 0 {
		t.Error("UntrackedGet subscribed the listener")
	}
}
