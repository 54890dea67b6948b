package pulse

import (
	"sync"
	"testing"
)

// testListener is a simple Listener implementation for testing.
type testListener struct {
	id         uint64
	dirtyCount int
	mu         sync.Mutex
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestGetTrackingContext(t *testing.T) {
	// Getting context should return the same context for same goroutine
	ctx1 := getTrackingContext()
	ctx2 := getTrackingContext()

	if ctx1 != ctx2 {
		t.Error("getTrackingContext should return same context for same goroutine")
	}
}

func TestTrackingContextIsolation(t *testing.T) {
	// Each goroutine should have its own context
	var wg sync.WaitGroup
	contexts := make(chan *TrackingContext, 2)

	wg.Add(2)

	go func() {
		defer wg.Done()
		ctx := getTrackingContext()
		ctx.batchDepth = 42
		contexts <- ctx
	}()

	go func() {
		defer wg.Done()
		ctx := getTrackingContext()
		ctx.batchDepth = 99
		contexts <- ctx
	}()

	wg.Wait()
	close(contexts)

	var ctxList []*TrackingContext
	for ctx := range contexts {
		ctxList = append(ctxList, ctx)
	}

	if len(ctxList) != 2 {
		t.Fatalf("expected 2 contexts, got %d", len(ctxList))
	}

	if ctxList[0] == ctxList[1] {
		t.Error("different goroutines should have different contexts")
	}

	depths := map[int]bool{}
	for _, ctx := range ctxList {
		depths[ctx.batchDepth] = true
	}

	if !depths[42] || !depths[99] {
		t.Error("contexts should maintain independent state")
	}
}

func TestWithListener(t *testing.T) {
	listener := newTestListener()

	var captured Listener
	WithListener(listener, func() {
		captured = getCurrentListener()
	})

	if captured != listener {
		t.Error("listener should be set during WithListener callback")
	}

	if getCurrentListener() != nil {
		t.Error("listener should be restored after WithListener")
	}
}

func TestWithListenerNested(t *testing.T) {
	listener1 := newTestListener()
	listener2 := newTestListener()

	var innerListener, outerAfterInner Listener

	WithListener(listener1, func() {
		WithListener(listener2, func() {
			innerListener = getCurrentListener()
		})
		outerAfterInner = getCurrentListener()
	})

	if innerListener != listener2 {
		t.Error("inner listener should be listener2")
	}

	if outerAfterInner != listener1 {
		t.Error("outer listener should be restored to listener1")
	}
}

func TestWithOwner(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	var captured *Owner
	WithOwner(owner, func() {
		captured = getCurrentOwner()
	})

	if captured != owner {
		t.Error("owner should be set during WithOwner callback")
	}

	if getCurrentOwner() != nil {
		t.Error("owner should be restored after WithOwner")
	}
}

func TestBatchDepth(t *testing.T) {
	if getBatchDepth() != 0 {
		t.Error("batch depth should start at 0")
	}

	incrementBatchDepth()
	if getBatchDepth() != 1 {
		t.Error("batch depth should be 1 after increment")
	}

	incrementBatchDepth()
	if getBatchDepth() != 2 {
		t.Error("batch depth should be 2 after second increment")
	}

	if decrementBatchDepth() {
		t.Error("decrementBatchDepth should return false when depth > 0")
	}

	if !decrementBatchDepth() {
		t.Error("decrementBatchDepth should return true when reaching 0")
	}
	if getBatchDepth() != 0 {
		t.Error("batch depth should be 0 after final decrement")
	}
}

func TestPendingUpdates(t *testing.T) {
	listener1 := newTestListener()
	listener2 := newTestListener()

	updates := drainPendingUpdates()
	if len(updates) != 0 {
		t.Error("pending updates should be empty initially")
	}

	queuePendingUpdate(listener1)
	queuePendingUpdate(listener2)
	queuePendingUpdate(listener1) // duplicate

	updates = drainPendingUpdates()
	if len(updates) != 3 {
		t.Errorf("expected 3 pending updates (including dupe), got %d", len(updates))
	}

	updates = drainPendingUpdates()
	if len(updates) != 0 {
		t.Error("pending updates should be empty after drain")
	}
}

func TestCleanupGoroutineContext(t *testing.T) {
	ctx := getTrackingContext()
	ctx.batchDepth = 5

	cleanupGoroutineContext()

	newCtx := getTrackingContext()
	if newCtx.batchDepth != 0 {
		t.Error("new context should have fresh state")
	}
}

func TestConcurrentContextAccess(t *testing.T) {
	var wg sync.WaitGroup
	const numGoroutines = 100
	const numIterations = 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				ctx := getTrackingContext()
				ctx.batchDepth = id
				_ = getBatchDepth()
				incrementBatchDepth()
				decrementBatchDepth()

				listener := newTestListener()
				setCurrentListener(listener)
				_ = getCurrentListener()
				setCurrentListener(nil)

				queuePendingUpdate(listener)
				drainPendingUpdates()
			}
		}(i)
	}

	wg.Wait()
}
