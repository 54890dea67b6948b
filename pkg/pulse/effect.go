package pulse

import (
	"sync/atomic"
	"time"
)

// Effect represents a reactive side effect that runs when its dependencies
// change. Effects are created using CreateEffect and are automatically
// tracked for dependencies during their execution.
//
// Effects run immediately when created, and re-run synchronously whenever
// any signal or memo they read during execution changes. They can return a
// Cleanup function that is called before the effect re-runs and when the
// effect is disposed.
//
// An effect body may write to signals, including its own dependencies.
// Such writes are processed with normal write semantics: the dirtied
// effects join the pending queue and run before the surrounding flush
// completes. The engine does not break cycles: a body that
// unconditionally rewrites its own dependency never lets the flush drain.
// Termination is the body's contract, usually via a convergence guard
// whose final write is an equal-value no-op.
type Effect struct {
	id uint64

	// fn is the effect function to run.
	fn func() Cleanup

	// cleanup is the cleanup function from the latest completed run.
	cleanup Cleanup

	// gen counts runs. A frame whose gen is superseded on return was
	// re-entered by a nested run and must not overwrite its state.
	gen uint64

	// deps are the sources read during the last completed run.
	deps depSet

	// owner is the Owner that owns this effect.
	owner *Owner

	// disposed marks the effect permanently inert.
	disposed atomic.Bool
}

// MarkDirty re-runs the effect, or queues it while a batch (including a
// running flush) is open. Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	if getBatchDepth() > 0 {
		queuePendingUpdate(e)
		return
	}

	e.flushDirty()
}

// flushDirty validates the recorded dependency versions and re-runs the
// effect if any moved: memo dependencies are brought clean first, and if
// no dependency actually changed value the run is skipped. This is what
// stops propagation through a memo that recomputed to an equal value.
func (e *Effect) flushDirty() {
	if e.disposed.Load() {
		return
	}

	if e.deps.empty() || e.deps.changed() {
		e.run()
		return
	}
	probeEffectSkip(e.id)
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// addDep records a source read during execution.
// Implements the derivation interface.
func (e *Effect) addDep(src *signalBase, refresh func()) {
	e.deps.add(src, refresh)
}

// run executes the effect function.
// This is called during initial creation and when dependencies change.
//
// The previous run's cleanup fires first, then the dependency set is
// rebuilt from the reads the body actually performs. A body that panics
// leaves no half-recorded dependencies behind; the panic propagates to
// whoever triggered the run.
//
// A body that writes its own dependency can re-enter run before this frame
// returns. The generation counter detects that: a superseded frame invokes
// its just-returned cleanup immediately instead of storing it over the
// newer run's, so no run's cleanup is ever skipped.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}

	e.deps.clear(e)

	e.gen++
	gen := e.gen

	old := setCurrentListener(e)
	completed := false
	start := probeClock()
	defer func() {
		setCurrentListener(old)
		if !completed {
			e.deps.clear(e)
		}
	}()

	cleanup := e.fn()
	completed = true
	probeEffectRun(e.id, start)

	if e.gen != gen {
		if cleanup != nil {
			cleanup()
		}
		return
	}
	e.cleanup = cleanup
}

// Dispose runs the last cleanup (if any), removes the effect from every
// source's subscriber set, and marks it permanently inert. Later writes to
// its former dependencies do not resurrect it. Dispose is idempotent.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}

	e.deps.clear(e)
}

// IsDisposed returns true if the effect has been disposed.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}

// CreateEffect creates and runs a new effect within the current owner
// scope. The effect function runs immediately and re-runs when any signal
// or memo it reads changes. If the function returns a Cleanup, it will be
// called before the effect re-runs and when the effect is disposed.
//
// The returned effect's Dispose method is the disposer; disposing the
// owning scope has the same result.
//
// Example:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: getCurrentOwner(),
	}

	if e.owner != nil {
		e.owner.registerEffect(e)
	}

	// Run immediately to establish the dependency set.
	e.run()

	return e
}

// OnMount creates an effect that runs only once.
// Signal reads inside fn are not tracked, so the body never re-runs.
//
// Example:
//
//	OnMount(func() {
//	    fmt.Println("Scope mounted")
//	})
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		Untracked(fn)
		return nil
	})
}

// OnUnmount registers a function to run when the current owner scope is
// disposed.
func OnUnmount(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

// OnUpdate creates an effect that skips the callback on the first run.
// This is useful when you only want to react to changes, not the initial
// value.
//
// The deps function is called on every run to establish dependencies. The
// callback only runs on subsequent runs, after those dependencies change.
//
// Example:
//
//	OnUpdate(
//	    func() { _ = count.Get() },           // deps: read signals to track
//	    func() { fmt.Println("Updated!") },   // callback: only on changes
//	)
func OnUpdate(deps func(), callback func()) {
	first := true
	CreateEffect(func() Cleanup {
		deps() // Always call to track dependencies
		if first {
			first = false
			return nil
		}
		callback()
		return nil
	})
}

// probeClock returns a start timestamp when a probe is attached, so effect
// durations are only measured when someone is watching.
func probeClock() time.Time {
	if currentProbe() == nil {
		return time.Time{}
	}
	return time.Now()
}

// Ensure Effect satisfies the internal interfaces.
var _ derivation = (*Effect)(nil)
