package castor

import "sync"

// constPool keeps the long-lived objects an operation body needs (the shared
// options, the singleton) in an arena addressed by index. Wrapper closures
// capture a constRef instead of the object, so releasing the pool cuts every
// reference at once and closed controllers stop serving.
type constPool struct {
	mu       sync.RWMutex
	slots    []any
	released bool
}

// constRef is a stable handle into a constPool
type constRef struct {
	pool  *constPool
	index int
}

func newConstPool() *constPool {
	return &constPool{}
}

// embed stores v and returns its handle
func (p *constPool) embed(v any) constRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = append(p.slots, v)
	return constRef{pool: p, index: len(p.slots) - 1}
}

// release drops every stored object; later loads fail with ErrControllerClosed
func (p *constPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = nil
	p.released = true
}

// load returns the object behind the handle
func (r constRef) load() (any, error) {
	r.pool.mu.RLock()
	defer r.pool.mu.RUnlock()
	if r.pool.released || r.index >= len(r.pool.slots) {
		return nil, ErrControllerClosed
	}
	return r.pool.slots[r.index], nil
}

// loadConst loads a handle and asserts its type
func loadConst[T any](r constRef) (T, error) {
	var zero T
	v, err := r.load()
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, ErrControllerClosed
	}
	return t, nil
}
