package ecs

// AnyStore provides type-erased operations for lifecycle management.
// World uses it to detach every component of a destroyed entity and the
// query builder uses it to intersect component sets.
type AnyStore interface {
	Has(e Entity) bool
	Remove(e Entity)
	Entities() []Entity
	Len() int
	Clear()
}

// Store is a container for one component type T.
// Components live in a dense slice in insertion order; a map resolves
// entities to slots. Pointers returned by Ptr are valid until the next
// Set of a new entity or Remove on the same store.
type Store[T any] struct {
	index  map[Entity]int
	owners []Entity
	dense  []T
}

// NewStore creates a new component store for type T.
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		index:  make(map[Entity]int),
		owners: make([]Entity, 0, 64),
		dense:  make([]T, 0, 64),
	}
}

// Set inserts or replaces the component for an entity.
func (s *Store[T]) Set(e Entity, val T) {
	if i, ok := s.index[e]; ok {
		s.dense[i] = val
		return
	}
	s.index[e] = len(s.dense)
	s.owners = append(s.owners, e)
	s.dense = append(s.dense, val)
}

// Get retrieves a copy of the component for an entity.
func (s *Store[T]) Get(e Entity) (T, bool) {
	if i, ok := s.index[e]; ok {
		return s.dense[i], true
	}
	var zero T
	return zero, false
}

// Ptr returns a pointer to the stored component for in-place mutation,
// or nil if the entity has none.
func (s *Store[T]) Ptr(e Entity) *T {
	if i, ok := s.index[e]; ok {
		return &s.dense[i]
	}
	return nil
}

// Has checks if the entity has this component.
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.index[e]
	return ok
}

// Remove detaches the component from an entity, preserving the order of
// the remaining components. Removing an absent component is a no-op.
func (s *Store[T]) Remove(e Entity) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	delete(s.index, e)

	copy(s.owners[i:], s.owners[i+1:])
	s.owners = s.owners[:len(s.owners)-1]

	var zero T
	copy(s.dense[i:], s.dense[i+1:])
	s.dense[len(s.dense)-1] = zero
	s.dense = s.dense[:len(s.dense)-1]

	for j := i; j < len(s.owners); j++ {
		s.index[s.owners[j]] = j
	}
}

// Entities returns a snapshot of all entities with this component,
// in insertion order.
func (s *Store[T]) Entities() []Entity {
	result := make([]Entity, len(s.owners))
	copy(result, s.owners)
	return result
}

// Len returns the number of entities with this component.
func (s *Store[T]) Len() int {
	return len(s.owners)
}

// Clear removes all components from this store.
func (s *Store[T]) Clear() {
	s.index = make(map[Entity]int)
	s.owners = s.owners[:0]
	clear(s.dense)
	s.dense = s.dense[:0]
}
