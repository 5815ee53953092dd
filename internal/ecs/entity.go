// Package ecs provides the entity/component storage used by the chamber
// simulation: a generational entity arena, typed component stores and
// intersection queries over them.
package ecs

import "fmt"

// Entity identifies a live object by slot index and generation.
// A destroyed entity's slot may be reused, but never with the same generation,
// so a stale Entity never aliases a newer one.
type Entity struct {
	Index      uint32
	Generation uint32
}

// String formats the entity as index:generation.
func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Generation)
}

// Arena allocates entity identities and tracks which are alive.
type Arena struct {
	generations []uint32
	alive       []bool
	free        []uint32
	count       int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		generations: make([]uint32, 0, 64),
		alive:       make([]bool, 0, 64),
	}
}

// Create reserves a new entity, reusing a freed slot when one is available.
func (a *Arena) Create() Entity {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.alive[idx] = true
		return Entity{Index: idx, Generation: a.generations[idx]}
	}

	idx := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return Entity{Index: idx, Generation: 0}
}

// Alive reports whether e refers to a live entity.
func (a *Arena) Alive(e Entity) bool {
	if int(e.Index) >= len(a.generations) {
		return false
	}
	return a.alive[e.Index] && a.generations[e.Index] == e.Generation
}

// Destroy releases e. Destroying a dead or stale entity panics: it means an
// owner lost track of the entity's lifecycle.
func (a *Arena) Destroy(e Entity) {
	if !a.Alive(e) {
		panic(fmt.Sprintf("ecs: destroy of dead entity %s", e))
	}
	a.alive[e.Index] = false
	a.generations[e.Index]++
	a.free = append(a.free, e.Index)
	a.count--
}

// Len returns the number of live entities.
func (a *Arena) Len() int {
	return a.count
}

// Reset forgets every entity. Generations are kept so old handles stay stale.
func (a *Arena) Reset() {
	a.free = a.free[:0]
	for i := range a.alive {
		if a.alive[i] {
			a.generations[i]++
		}
		a.alive[i] = false
		a.free = append(a.free, uint32(i))
	}
	a.count = 0
}
