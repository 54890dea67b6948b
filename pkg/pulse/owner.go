package pulse

import (
	"sync"
	"sync/atomic"
)

// Owner represents a scope that owns reactive derivations.
// When an Owner is disposed, all effects, memos, cleanups, and child
// owners it contains are also disposed, exactly once. This ensures
// deterministic teardown and prevents leaked subscriptions.
//
// Owners form a hierarchy: each CreateRoot call creates an Owner that is a
// child of the currently active one, mirroring the structure of whatever
// consumer (component tree, screen, widget) drives the engine.
type Owner struct {
	id uint64

	// parent is the parent Owner in the hierarchy.
	// nil for a root Owner.
	parent *Owner

	// children are child Owners (sub-scopes).
	children   []*Owner
	childrenMu sync.Mutex

	// effects owned by this scope.
	effects   []*Effect
	effectsMu sync.Mutex

	// cleanups are cleanup functions registered via OnCleanup.
	// Memos register their disposers here.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values stores scope-local context values.
	values   map[any]any
	valuesMu sync.RWMutex

	// disposed indicates whether this Owner has been disposed.
	// A disposed scope does not accept new registrations.
	disposed atomic.Bool
}

// NewOwner creates a new Owner with the given parent.
// The new Owner is automatically registered as a child of the parent.
// If parent is nil, creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(o)
	}

	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// addChild registers a child Owner.
func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

// removeChild removes a child Owner from this Owner's children.
func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// registerEffect adds an effect to this Owner.
// The effect will be disposed when this Owner is disposed.
func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}

	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	o.effects = append(o.effects, e)
}

// OnCleanup registers a cleanup function to run when this Owner is
// disposed. On an already-disposed Owner the cleanup runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// SetValue sets a scope-local context value on this Owner.
// The value is visible to this scope and all descendant scopes.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue retrieves a context value from this Owner or its ancestors.
// Returns nil if no provider is found.
func (o *Owner) GetValue(key any) any {
	o.valuesMu.RLock()
	if o.values != nil {
		if val, ok := o.values[key]; ok {
			o.valuesMu.RUnlock()
			return val
		}
	}
	o.valuesMu.RUnlock()

	if o.parent != nil {
		return o.parent.GetValue(key)
	}

	return nil
}

// Dispose disposes this Owner and all its children, effects, and cleanups.
// Children are disposed in reverse order (last created first), then
// effects, then cleanups in reverse registration order. Dispose is
// idempotent; every cleanup runs exactly once.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()

	for _, e := range effects {
		e.Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// CreateRoot runs fn inside a fresh disposal scope and returns fn's
// result. Every derivation created while the scope is current is
// registered into it; calling the provided dispose function tears them
// all down, transitively running their cleanups exactly once.
//
// The scope is a child of whatever scope was current, and the previous
// scope is restored when CreateRoot returns, even if fn panics.
//
// Example:
//
//	dispose := CreateRoot(func(dispose func()) func() {
//	    CreateEffect(func() Cleanup { ... })
//	    return dispose
//	})
//	defer dispose()
func CreateRoot[T any](fn func(dispose func()) T) T {
	owner := NewOwner(getCurrentOwner())

	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)

	return fn(owner.Dispose)
}

// SetContext sets a context value for the current scope.
// This value will be available to the scope and all descendants via
// GetContext. No-op when no scope is active.
func SetContext(key, value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext retrieves a context value from the nearest provider in the
// scope hierarchy. Returns nil if no value is found or no scope is active.
func GetContext(key any) any {
	if owner := getCurrentOwner(); owner != nil {
		return owner.GetValue(key)
	}
	return nil
}
