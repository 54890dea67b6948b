package pulse

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// signalBase provides type-erased subscriber management and change
// stamping. It is embedded in Signal[T] and Memo[T] to share subscription
// logic.
type signalBase struct {
	id uint64

	// subs are the listeners subscribed to this source, in the order they
	// first subscribed. Notification walks this order.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex

	// version increments every time the source's value actually changes
	// (a write or recomputation that was not equal to the previous value).
	// Derivations record the version they observed so a scheduled re-run
	// can be skipped when nothing actually moved.
	version atomic.Uint64
}

// subscribe adds a listener to this source's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener from this source's subscribers.
// Removal preserves insertion order so notification order stays stable
// for the remaining subscribers.
func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notifySubscribers propagates a change from this source.
//
// Memos in the subscriber set are marked stale immediately (and propagate
// staleness to their own subscribers without recomputing); everything else
// queues for the flush. An un-batched write opens a one-deep batch around
// the propagation so every memo reachable from this source is stale before
// the first effect runs, then flushes before returning. The flush is
// deferred so a panicking effect body cannot leave the batch depth off.
func (s *signalBase) notifySubscribers() {
	// Copy subscribers while holding the lock; effects re-running during
	// the flush mutate the live slice.
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if getBatchDepth() == 0 {
		incrementBatchDepth()
		defer func() {
			if decrementBatchDepth() {
				processPendingUpdates()
			}
		}()
	}

	for _, sub := range subs {
		if sm, ok := sub.(staleMarker); ok {
			sm.markStale()
		} else {
			queuePendingUpdate(sub)
		}
	}
}

// bumpVersion stamps the source as changed.
func (s *signalBase) bumpVersion() {
	s.version.Add(1)
}

// loadVersion returns the current change stamp.
func (s *signalBase) loadVersion() uint64 {
	return s.version.Load()
}

// getID returns the unique identifier for this source.
func (s *signalBase) getID() uint64 {
	return s.id
}

// Signal is a reactive value container.
// Reading a Signal's value during a tracked context (memo computation or
// effect execution) automatically subscribes the current listener to
// receive notifications when the value changes.
type Signal[T any] struct {
	base signalBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to determine if the value changed.
	// If nil, uses default equality checking.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base: signalBase{
			id: nextID(),
		},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
// If called during a tracked context (memo computation or effect
// execution), the current listener will be notified when this signal's
// value changes.
func (s *Signal[T]) Get() T {
	// Read value with lock
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track dependency (after releasing the value lock to prevent deadlock)
	if listener := getCurrentListener(); listener != nil {
		s.base.subscribe(listener)
		if d, ok := listener.(derivation); ok {
			d.addDep(&s.base, nil)
		}
	}

	return value
}

// Peek returns the current value without subscribing.
// This is useful when you need to read a value inside a derivation without
// creating a dependency on it.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and propagates if the value changed.
// A write that is equal under the signal's equality function is a no-op:
// no subscriber is notified and no effect re-runs. An un-batched changed
// write re-runs every dependent effect synchronously before Set returns.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.bumpVersion()
		probeSignalWrite(s.base.id)
		s.base.notifySubscribers()
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.base.bumpVersion()
		probeSignalWrite(s.base.id)
		s.base.notifySubscribers()
	}
}

// WithEquals returns the signal configured with a custom equality function.
// This is useful for custom types where reflect.DeepEqual is too expensive
// or has incorrect semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// equals checks if two values are equal using the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}
