// Package generic holds small typed wrappers over standard containers.
package generic

import "sync"

// Pool is a typed sync.Pool. reset, when set, runs on every value handed
// back through Put.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T) T
}

func NewPool[T any](generate func() T, reset func(T) T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
		reset: reset,
	}
}

// NewHotPool is NewPool pre-filled with hotSize values.
func NewHotPool[T any](generate func() T, reset func(T) T, hotSize int) *Pool[T] {
	p := NewPool(generate, reset)
	for range hotSize {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		value = p.reset(value)
	}
	p.pool.Put(value)
}
