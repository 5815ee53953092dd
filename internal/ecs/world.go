package ecs

// World couples an entity arena with the component stores registered on it,
// so that destroying an entity detaches all of its components.
type World struct {
	arena  *Arena
	stores []AnyStore
}

// NewWorld creates an empty world with no registered stores.
func NewWorld() *World {
	return &World{arena: NewArena()}
}

// Register adds a store to the world's lifecycle management and returns it.
func Register[T any](w *World) *Store[T] {
	s := NewStore[T]()
	w.stores = append(w.stores, s)
	return s
}

// Create reserves a new entity.
func (w *World) Create() Entity {
	return w.arena.Create()
}

// Alive reports whether e is a live entity.
func (w *World) Alive(e Entity) bool {
	return w.arena.Alive(e)
}

// Destroy detaches every component of e and releases its identity.
// Panics if e is not alive.
func (w *World) Destroy(e Entity) {
	w.arena.Destroy(e)
	for _, s := range w.stores {
		s.Remove(e)
	}
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.arena.Len()
}

// Clear removes all entities and components.
func (w *World) Clear() {
	w.arena.Reset()
	for _, s := range w.stores {
		s.Clear()
	}
}
