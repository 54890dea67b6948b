package pulse

import "sync/atomic"

// idCounter hands out process-wide unique IDs for signals, memos,
// effects, and owners.
var idCounter atomic.Uint64

// nextID returns a fresh ID. IDs only grow and are never reused.
func nextID() uint64 {
	return idCounter.Add(1)
}

// Listener is anything that can be notified when a dependency changes.
// This interface is implemented by memos, effects, and external consumers
// such as renderers.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has
	// changed. For memos, this invalidates the cached value. For effects,
	// this re-runs the body (or queues it while a batch is open).
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch flushes.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// derivation is implemented by listeners that track their sources (memos
// and effects). Sources call addDep so the derivation can drop stale
// subscriptions on its next run and validate versions before re-running.
type derivation interface {
	Listener
	addDep(src *signalBase, refresh func())
}

// staleMarker is implemented by derivations that must observe invalidation
// at write time even while a batch is open. Memos go stale immediately so
// reads inside the batch recompute; effects wait for the flush.
type staleMarker interface {
	markStale()
}
