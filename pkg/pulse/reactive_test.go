package pulse

import (
	"fmt"
	"testing"
)

// TestDiamondDependency verifies glitch-free propagation: one source feeding
// two memos feeding a join must never expose a half-updated state, and the
// join recomputes at most once per change.
func TestDiamondDependency(t *testing.T) {
	a := NewSignal(1)

	b := NewMemo(func() int { return a.Get() + 1 })
	c := NewMemo(func() int { return a.Get() * 2 })

	joinComputes := 0
	d := NewMemo(func() int {
		joinComputes++
		return b.Get() + c.Get()
	})

	if got := d.Get(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if joinComputes != 1 {
		t.Fatalf("expected 1 join computation, got %d", joinComputes)
	}

	a.Set(4)

	if got := d.Get(); got != 13 {
		t.Errorf("expected 13 (5 + 8), got %d", got)
	}
	if joinComputes != 2 {
		t.Errorf("join recomputed %d times for one change, expected 2 total", joinComputes)
	}
}

func TestDiamondEffectSeesSettledState(t *testing.T) {
	a := NewSignal(1)
	double := NewMemo(func() int { return a.Get() * 2 })
	triple := NewMemo(func() int { return a.Get() * 3 })

	var observed []int
	CreateEffect(func() Cleanup {
		observed = append(observed, double.Get()+triple.Get())
		return nil
	})

	a.Set(2)

	// One run per change, and each run sees both arms from the same write.
	want := []int{5, 10}
	if len(observed) != len(want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("glitched intermediate state: %v", observed)
		}
	}
}

func TestChainPropagation(t *testing.T) {
	s := NewSignal(1)

	m := NewMemo(func() int { return s.Get() + 1 })
	m2 := NewMemo(func() int { return m.Get() + 1 })
	m3 := NewMemo(func() int { return m2.Get() + 1 })

	var got int
	CreateEffect(func() Cleanup {
		got = m3.Get()
		return nil
	})

	if got != 4 {
		t.Errorf("expected 4, got %d", got)
	}

	s.Set(10)
	if got != 13 {
		t.Errorf("expected 13 after write, got %d", got)
	}
}

func TestChainUnchangedCutoff(t *testing.T) {
	s := NewSignal(2)

	// clamped collapses many inputs to few outputs.
	clamped := NewMemo(func() int {
		v := s.Get()
		if v > 10 {
			return 10
		}
		return v
	})

	downstream := 0
	CreateEffect(func() Cleanup {
		_ = clamped.Get()
		downstream++
		return nil
	})

	s.Set(50) // clamps to 10
	if downstream != 2 {
		t.Fatalf("expected 2 runs, got %d", downstream)
	}

	s.Set(99) // still clamps to 10: no downstream run
	if downstream != 2 {
		t.Errorf("unchanged memo value propagated, runs %d", downstream)
	}
}

func TestMemoDirtyWithoutReadStaysLazy(t *testing.T) {
	s := NewSignal(1)
	computes := 0

	m := NewMemo(func() int {
		computes++
		return s.Get()
	})
	_ = m.Get()

	// No reader: staleness is free.
	s.Set(2)
	s.Set(3)

	if computes != 1 {
		t.Errorf("memo recomputed without a read, count %d", computes)
	}
}

func TestEffectOverMemoAndSignal(t *testing.T) {
	count := NewSignal(2)
	label := NewSignal("items")

	summary := NewMemo(func() string {
		return fmt.Sprintf("%d %s", count.Get(), label.Get())
	})

	var got string
	CreateEffect(func() Cleanup {
		got = summary.Get()
		return nil
	})

	if got != "2 items" {
		t.Errorf("expected %q, got %q", "2 items", got)
	}

	Batch(func() {
		count.Set(5)
		label.Set("boxes")
	})

	if got != "5 boxes" {
		t.Errorf("expected %q, got %q", "5 boxes", got)
	}
}

func TestScopedPipelineTeardown(t *testing.T) {
	source := NewSignal(1)
	memoComputes := 0
	effectRuns := 0

	dispose := CreateRoot(func(dispose func()) func() {
		derived := NewMemo(func() int {
			memoComputes++
			return source.Get() * 10
		})
		CreateEffect(func() Cleanup {
			_ = derived.Get()
			effectRuns++
			return nil
		})
		return dispose
	})

	source.Set(2)
	if memoComputes != 2 || effectRuns != 2 {
		t.Fatalf("expected live pipeline, computes=%d runs=%d", memoComputes, effectRuns)
	}

	dispose()

	source.Set(3)
	if memoComputes != 2 || effectRuns != 2 {
		t.Errorf("disposed pipeline still reacting, computes=%d runs=%d", memoComputes, effectRuns)
	}
}

func BenchmarkSignalGet(b *testing.B) {
	s := NewSignal(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Get()
	}
}

func BenchmarkSignalSetWithEffect(b *testing.B) {
	s := NewSignal(0)
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		return nil
	})
	defer e.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(i)
	}
}

func BenchmarkMemoCachedGet(b *testing.B) {
	s := NewSignal(7)
	m := NewMemo(func() int { return s.Get() * 2 })
	_ = m.Get()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Get()
	}
}

func BenchmarkBatchedWrites(b *testing.B) {
	a := NewSignal(0)
	c := NewSignal(0)
	e := CreateEffect(func() Cleanup {
		_ = a.Get() + c.Get()
		return nil
	})
	defer e.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Batch(func() {
			a.Set(i)
			c.Set(i + 1)
		})
	}
}
