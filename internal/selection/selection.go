// Package selection holds the single-choice UI state of a section: the active experience
// entry, the active project category and the expanded idea card.
package selection

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownMember is returned when selecting an id outside the collection.
var ErrUnknownMember = errors.New("selection: unknown member")

// Exclusive selects exactly one member of a fixed, ordered collection. The initial selection is
// the first member.
type Exclusive[T comparable] struct {
	mu      sync.Mutex
	members []T
	active  T
}

// NewExclusive panics on an empty collection; there is nothing to select.
func NewExclusive[T comparable](members []T) *Exclusive[T] {
	if len(members) == 0 {
		panic("selection: empty collection")
	}
	return &Exclusive[T]{members: slices.Clone(members), active: members[0]}
}

// Select makes id the active member. An unknown id leaves the selection unchanged. The returned
// bool reports whether the active member changed.
func (e *Exclusive[T]) Select(id T) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !slices.Contains(e.members, id) {
		return false, fmt.Errorf("%w: %v", ErrUnknownMember, id)
	}
	if e.active == id {
		return false, nil
	}
	e.active = id
	return true, nil
}

func (e *Exclusive[T]) Active() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Members returns the collection in display order.
func (e *Exclusive[T]) Members() []T { return slices.Clone(e.members) }

// Toggle is a group of expandable items where at most one is expanded.
type Toggle[T comparable] struct {
	mu      sync.Mutex
	members []T
	active  T
	open    bool
}

func NewToggle[T comparable](members []T) *Toggle[T] {
	return &Toggle[T]{members: slices.Clone(members)}
}

// Toggle expands id, collapses it when it is already expanded, or switches straight to it from
// another expanded item.
func (g *Toggle[T]) Toggle(id T) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !slices.Contains(g.members, id) {
		return fmt.Errorf("%w: %v", ErrUnknownMember, id)
	}
	if g.open && g.active == id {
		var zero T
		g.active, g.open = zero, false
		return nil
	}
	g.active, g.open = id, true
	return nil
}

// Active returns the expanded item, with ok false when none is expanded.
func (g *Toggle[T]) Active() (id T, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.open
}

// IsActive reports whether id is the expanded item.
func (g *Toggle[T]) IsActive(id T) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open && g.active == id
}

// Filter returns the items whose key equals active, keeping their order. When active is all the
// whole collection is returned.
func Filter[T any, K comparable](items []T, active, all K, key func(T) K) []T {
	if active == all {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if key(it) == active {
			out = append(out, it)
		}
	}
	return out
}
