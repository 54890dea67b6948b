// Package pulse provides the fine-grained reactive core for the Pulse
// toolkit.
//
// Dependencies are tracked automatically at runtime: reading a signal while
// a derivation (memo or effect) is executing subscribes that derivation to
// the signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (re-runs dependent effects)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived computation. Memos are lazy: a write marks
// them stale, and the next Get recomputes at most once:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()
//
// Effect runs side effects eagerly when dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Propagation model
//
// An un-batched write flushes synchronously before Set returns: memos
// along the subscriber graph are marked stale first, then every dirtied
// effect runs exactly once in the order it was first scheduled. Effects
// dirtied by writes during the flush join the back of the queue and run
// in the same flush. Reads always observe a fully settled graph: a memo
// read during an effect run recomputes on demand, so no derivation ever
// sees a mix of old and new sibling values.
//
// Multiple writes can be coalesced into one flush:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	    c.Set(3)
//	})  // Dependent effects run once after all three updates
//
// # Ownership
//
// Owners group derivations for joint disposal. CreateRoot establishes a
// scope whose dispose function tears down every effect, memo, and cleanup
// created inside it:
//
//	CreateRoot(func(dispose func()) struct{} {
//	    CreateEffect(func() Cleanup { ... })
//	    defer dispose()
//	    return struct{}{}
//	})
//
// # Execution model
//
// The engine is synchronous and cooperative. The tracking context is
// per-goroutine; spawning goroutines requires explicit propagation via
// WithOwner, and asynchronous work should re-enter the engine with a plain
// signal write.
package pulse
