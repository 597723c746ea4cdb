package urlstate

import (
	"reflect"
	"sync"

	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"github.com/vango-dev/urlstate/pkg/querycodec"
)

// Binding is the live pairing of a Definition with its current value.
type Binding[T any] struct {
	scope *Scope
	id    uint64

	mu      sync.Mutex
	def     Definition[T]
	value   T
	settled bool
	closed  bool

	// deps are the memo dependencies the current definition was built from.
	deps     []any
	memoized bool
}

// Bind activates a binding for def in scope. Its value is seeded from the
// scope's current location.
func Bind[T any](s *Scope, def Definition[T]) *Binding[T] {
	b := &Binding[T]{scope: s, def: def.normalize()}
	b.observe(querycodec.Decode(s.Location().Search))
	b.id = s.register(b)
	return b
}

// BindMemo is Bind for definitions built on every render. build is only
// called again through Memo when deps change.
func BindMemo[T any](s *Scope, deps []any, build func() Definition[T]) *Binding[T] {
	b := Bind(s, build())
	b.deps = copyDeps(deps)
	b.memoized = true
	return b
}

// Key returns the query key this binding owns.
func (b *Binding[T]) Key() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.def.Key
}

// Get returns the current value.
func (b *Binding[T]) Get() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// State returns the current value and the setter, mirroring a state hook.
func (b *Binding[T]) State() (T, func(T)) {
	return b.Get(), b.Set
}

// Set validates v, updates the local value at once and queues the URL
// write. Invalid values are replaced by the default; values equal to the
// default remove the key from the URL.
func (b *Binding[T]) Set(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v = b.def.sanitize(v)
	b.value = v
	b.settled = true
	b.write(v)
}

// Clear reverts to the default and removes the key from the URL.
func (b *Binding[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.value = b.def.Default
	b.settled = true
	b.scope.enqueue(b.def.Key, commitqueue.Null())
}

// write must be called with b.mu held so that no reconciliation can observe
// the new local value before its write is queued.
func (b *Binding[T]) write(v T) {
	if b.def.isDefault(v) {
		b.scope.enqueue(b.def.Key, commitqueue.Null())
		return
	}
	b.scope.enqueue(b.def.Key, commitqueue.Set(b.def.Dehydrate(v)))
}

// Observe reconciles the binding with loc. It reports whether the value
// changed. While the scope has pending writes the location is not yet
// authoritative and nothing changes.
func (b *Binding[T]) Observe(loc Location) bool {
	return b.observe(querycodec.Decode(loc.Search))
}

func (b *Binding[T]) observe(values *querycodec.Values) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if !b.settled {
		b.value = read(values, b.def)
		b.settled = true
		return true
	}
	if b.scope.Pending() > 0 {
		return false
	}
	next := read(values, b.def)
	if reflect.DeepEqual(next, b.value) {
		return false
	}
	b.value = next
	return true
}

// Redefine swaps the definition and re-validates the current value against
// it. The URL is not written.
func (b *Binding[T]) Redefine(def Definition[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.def = def.normalize()
	b.value = b.def.sanitize(b.value)
}

// Memo rebuilds and applies the definition only when deps differ from the
// ones it was last built with. It reports whether build was called.
func (b *Binding[T]) Memo(deps []any, build func() Definition[T]) bool {
	b.mu.Lock()
	same := b.memoized && reflect.DeepEqual(b.deps, deps)
	b.mu.Unlock()
	if same {
		return false
	}

	def := build()
	b.Redefine(def)

	b.mu.Lock()
	b.deps = copyDeps(deps)
	b.memoized = true
	b.mu.Unlock()
	return true
}

// Definition returns the definition in effect, with defaults filled in.
func (b *Binding[T]) Definition() Definition[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.def
}

// Close detaches the binding from its scope. Writes it already queued are
// still committed with the rest of the scope's window.
func (b *Binding[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.scope.unregister(b.id)
}

func copyDeps(deps []any) []any {
	if deps == nil {
		return nil
	}
	out := make([]any, len(deps))
	copy(out, deps)
	return out
}
