package pulse

import (
	"sync"
	"sync/atomic"
)

// Memo is a cached computation that automatically tracks its dependencies.
// When any dependency changes, the memo is marked stale and recomputes on
// the next read.
//
// Memos are lazy: being marked stale any number of times costs one
// recomputation, on the next Get(). A recomputation that produces a value
// equal to the cached one does not count as a change for downstream
// derivations: dependents scheduled through this memo skip their re-run.
//
// Memos can also be subscribed to, behaving like signals themselves.
// This allows building chains of derived values, and guarantees that a
// diamond (one signal feeding two memos feeding a third) recomputes the
// join at most once per read, with both arms settled.
type Memo[T any] struct {
	base signalBase

	// compute is the function that computes the memo's value.
	compute func() T

	// value is the cached computed value; hasValue distinguishes "never
	// ran" from a cached zero value.
	value    T
	hasValue bool

	// valueMu protects value and hasValue.
	valueMu sync.RWMutex

	// valid indicates whether the cached value is current.
	// When false, the next Get() will revalidate or recompute.
	valid atomic.Bool

	// deps are the sources read during the last completed run.
	deps depSet

	// equal is the equality function for determining value changes.
	equal func(T, T) bool

	// computing prevents infinite recursion in circular dependencies.
	computing atomic.Bool

	// disposed marks the memo permanently inert.
	disposed atomic.Bool
}

// NewMemo creates a new memo with the given computation function.
// The computation is not run immediately; it runs lazily on first Get().
//
// If an owner scope is current, the memo is registered with it and is
// detached from every source when the scope is disposed.
func NewMemo[T any](compute func() T) *Memo[T] {
	m := &Memo[T]{
		base: signalBase{
			id: nextID(),
		},
		compute: compute,
	}

	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(m.dispose)
	}

	return m
}

// Get returns the memo's value, recomputing if necessary.
// Creates a dependency on this memo for the current listener. Reading a
// clean memo from inside another derivation subscribes the caller without
// re-executing the body.
func (m *Memo[T]) Get() T {
	// Bring the memo clean before recording the dependency, so the caller
	// observes the post-recomputation version.
	m.ensure()

	if listener := getCurrentListener(); listener != nil && !m.disposed.Load() {
		m.base.subscribe(listener)
		if d, ok := listener.(derivation); ok {
			d.addDep(&m.base, m.ensure)
		}
	}

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// Peek returns the memo's value without subscribing.
// Still brings the memo clean if it is stale.
func (m *Memo[T]) Peek() T {
	m.ensure()
	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// MarkDirty invalidates the memo and propagates staleness to subscribers.
// Implements the Listener interface.
func (m *Memo[T]) MarkDirty() {
	m.markStale()
}

// markStale transitions the memo to stale without running it, then
// propagates through the subscriber set. A memo already stale (or never
// computed) propagates nothing: its subscribers were told the first time.
func (m *Memo[T]) markStale() {
	if m.disposed.Load() {
		return
	}
	if m.valid.CompareAndSwap(true, false) {
		m.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this memo.
// Implements the Listener interface.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// addDep records a source read during computation.
// Implements the derivation interface.
func (m *Memo[T]) addDep(src *signalBase, refresh func()) {
	m.deps.add(src, refresh)
}

// WithEquals configures the memo with a custom equality function.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// ensure brings the memo clean. A stale memo whose recorded dependencies
// all still carry the version observed last run revalidates without
// executing the body (the staleness came from an upstream change that
// settled to an equal value); otherwise the body runs.
func (m *Memo[T]) ensure() {
	if m.disposed.Load() || m.valid.Load() {
		return
	}

	m.valueMu.RLock()
	ran := m.hasValue
	m.valueMu.RUnlock()

	if ran && !m.deps.changed() {
		m.valid.Store(true)
		return
	}

	m.recompute()
}

// recompute runs the computation and updates the cached value.
// The dependency set is rebuilt from the reads the body actually performs;
// if the body panics, the half-recorded set is discarded so a later read
// rebuilds dependencies cleanly.
func (m *Memo[T]) recompute() {
	// Prevent infinite recursion in circular dependencies.
	if m.computing.Swap(true) {
		return
	}
	defer m.computing.Store(false)

	m.deps.clear(m)

	old := setCurrentListener(m)
	completed := false
	defer func() {
		setCurrentListener(old)
		if !completed {
			m.deps.clear(m)
		}
	}()

	newValue := m.compute()
	completed = true

	m.valueMu.Lock()
	changed := !m.hasValue || !m.equals(m.value, newValue)
	m.value = newValue
	m.hasValue = true
	m.valueMu.Unlock()

	m.valid.Store(true)
	if changed {
		m.base.bumpVersion()
	}
	probeMemoRecompute(m.base.id, changed)
}

// dispose detaches the memo from every source and marks it inert.
// Registered with the owning scope at creation; later writes to former
// dependencies no longer reach it.
func (m *Memo[T]) dispose() {
	if m.disposed.Swap(true) {
		return
	}
	m.deps.clear(m)
}

// equals checks if two values are equal.
func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

// Ensure Memo satisfies the internal interfaces.
var (
	_ derivation  = (*Memo[int])(nil)
	_ staleMarker = (*Memo[int])(nil)
)
