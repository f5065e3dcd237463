package game

import "errors"

// ErrNegativeCapacity is returned when a pool capacity below zero is requested.
var ErrNegativeCapacity = errors.New("pool capacity must not be negative")

// Pool is an ordered, optionally bounded collection of entities of one
// category. Insertion order is kept: index 0 is the oldest entry.
type Pool[T Entity] struct {
	name     string
	items    []T
	capacity int
	bounded  bool
}

// NewPool creates an unbounded pool.
func NewPool[T Entity](name string) *Pool[T] {
	return &Pool[T]{name: name}
}

// NewBoundedPool creates a pool that housekeeping trims to capacity.
func NewBoundedPool[T Entity](name string, capacity int) (*Pool[T], error) {
	if capacity < 0 {
		return nil, ErrNegativeCapacity
	}
	return &Pool[T]{
		name:     name,
		items:    make([]T, 0, capacity),
		capacity: capacity,
		bounded:  true,
	}, nil
}

// Name returns the pool's label (used for metrics and diagnostics).
func (p *Pool[T]) Name() string { return p.name }

// Len returns the number of entities currently held.
func (p *Pool[T]) Len() int { return len(p.items) }

// Capacity returns the configured capacity and whether one is set.
func (p *Pool[T]) Capacity() (int, bool) { return p.capacity, p.bounded }

// Items exposes the backing slice for read-only iteration.
// Callers must not retain it across frames.
func (p *Pool[T]) Items() []T { return p.items }

// Spawn appends an entity to the end of the pool.
func (p *Pool[T]) Spawn(e T) {
	p.items = append(p.items, e)
}

// Update advances every entity, marked or not.
func (p *Pool[T]) Update(deltaMs float64) {
	for _, e := range p.items {
		e.Update(deltaMs)
	}
}

// Draw draws every entity in insertion order.
func (p *Pool[T]) Draw(c Canvas) {
	for _, e := range p.items {
		e.Draw(c)
	}
}

// EnforceCapacity truncates the pool to its first maxLen entries.
// Marked entities are not considered: they hold their slot until Prune.
func (p *Pool[T]) EnforceCapacity(maxLen int) (int, error) {
	if maxLen < 0 {
		return 0, ErrNegativeCapacity
	}
	return p.truncate(maxLen), nil
}

func (p *Pool[T]) truncate(maxLen int) int {
	if len(p.items) <= maxLen {
		return 0
	}
	dropped := len(p.items) - maxLen
	var zero T
	for i := maxLen; i < len(p.items); i++ {
		p.items[i] = zero
	}
	p.items = p.items[:maxLen]
	return dropped
}

// Prune removes marked entities in place, preserving relative order.
func (p *Pool[T]) Prune() int {
	n := 0
	for _, e := range p.items {
		if !e.MarkedForDeletion() {
			p.items[n] = e
			n++
		}
	}
	removed := len(p.items) - n
	var zero T
	for i := n; i < len(p.items); i++ {
		p.items[i] = zero
	}
	p.items = p.items[:n]
	return removed
}

// Housekeep applies the configured capacity and then prunes.
// The order matters: trimming sees marked entities too.
func (p *Pool[T]) Housekeep() (trimmed, pruned int) {
	if p.bounded {
		trimmed = p.truncate(p.capacity)
	}
	pruned = p.Prune()
	return trimmed, pruned
}

// Clear drops every entity.
func (p *Pool[T]) Clear() {
	p.truncate(0)
}
