package pulse

import "fmt"

// DebugMode enables debug logging throughout the pulse package.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// Batch groups multiple signal updates into a single flush.
// All effects dirtied within the batch function are collected in
// first-scheduled order, deduplicated, and run once when the outermost
// batch completes. Effects dirtied by writes during the flush itself are
// appended to the queue and run in the same flush, after the listeners
// already pending. Memos are still marked stale at write time, so reads
// inside the batch observe fresh values.
//
// Batches can be nested. Only the outermost exit flushes.
//
// If fn panics, the batch flag is restored and whatever was already
// pending is flushed before the panic propagates.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Dependent effects run once with all three changes
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingUpdates()
		}
	}()

	fn()
}

// BatchValue is Batch for functions that return a value.
func BatchValue[T any](fn func() T) T {
	var result T
	Batch(func() {
		result = fn()
	})
	return result
}

// processPendingUpdates drains and notifies the pending queue until it is
// empty. The batch depth is held above zero for the duration, so writes
// performed by a running effect append their dirtied listeners to the
// queue; they run after the listeners already pending, in the same flush.
func processPendingUpdates() {
	incrementBatchDepth()
	defer decrementBatchDepth()

	for {
		updates := drainPendingUpdates()
		if len(updates) == 0 {
			return
		}

		// Deduplicate by listener ID, keeping first-scheduled order.
		seen := make(map[uint64]bool, len(updates))
		unique := make([]Listener, 0, len(updates))

		for _, listener := range updates {
			id := listener.ID()
			if !seen[id] {
				seen[id] = true
				unique = append(unique, listener)
			}
		}

		if DebugMode {
			fmt.Printf("[pulse] flush: %d pending, %d unique\n", len(updates), len(unique))
		}

		probeBatchFlush(len(unique))

		for _, listener := range unique {
			if e, ok := listener.(*Effect); ok {
				e.flushDirty()
			} else {
				listener.MarkDirty()
			}
		}
	}
}

// Untracked runs a function without tracking signal reads as dependencies.
// Any reads inside fn do not subscribe the outer derivation. Nesting is
// transparent: the prior listener is restored on exit, even on panic.
//
// Example:
//
//	CreateEffect(func() Cleanup {
//	    _ = a.Get()
//	    Untracked(func() {
//	        // Reading b here does not subscribe the effect
//	        fmt.Println("b is", b.Get())
//	    })
//	    return nil
//	})
//
// Note: For single signal reads, use signal.Peek() instead which is more
// efficient and clearer in intent.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedValue is Untracked for functions that return a value.
func UntrackedValue[T any](fn func() T) T {
	var result T
	Untracked(func() {
		result = fn()
	})
	return result
}

// UntrackedGet reads a signal's value without creating a dependency.
// This is a convenience function equivalent to signal.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
