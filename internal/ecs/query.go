package ecs

// QueryBuilder finds entities by component intersection.
// It starts from the smallest included store and filters through the rest,
// so the result order follows that store's insertion order.
type QueryBuilder struct {
	include  []AnyStore
	exclude  []AnyStore
	executed bool
	results  []Entity
}

// Query creates a new QueryBuilder.
//
// Example:
//
//	movers := ecs.Query().
//	    With(particles).
//	    With(velocities).
//	    Execute()
func Query() *QueryBuilder {
	return &QueryBuilder{
		include: make([]AnyStore, 0, 4),
	}
}

// With restricts results to entities that have a component in store.
// Panics if called after Execute.
func (qb *QueryBuilder) With(store AnyStore) *QueryBuilder {
	if qb.executed {
		panic("ecs: query already executed")
	}
	qb.include = append(qb.include, store)
	return qb
}

// Without drops entities that have a component in store.
// Panics if called after Execute.
func (qb *QueryBuilder) Without(store AnyStore) *QueryBuilder {
	if qb.executed {
		panic("ecs: query already executed")
	}
	qb.exclude = append(qb.exclude, store)
	return qb
}

// Execute runs the query. The result is a snapshot: adding or removing
// components afterwards does not change it. Calling Execute again returns
// the cached result.
func (qb *QueryBuilder) Execute() []Entity {
	if qb.executed {
		return qb.results
	}
	qb.executed = true

	if len(qb.include) == 0 {
		qb.results = make([]Entity, 0)
		return qb.results
	}

	smallest := 0
	for i, s := range qb.include {
		if s.Len() < qb.include[smallest].Len() {
			smallest = i
		}
	}

	candidates := qb.include[smallest].Entities()
	filtered := candidates[:0]
	for _, e := range candidates {
		if qb.matches(e, smallest) {
			filtered = append(filtered, e)
		}
	}

	qb.results = filtered
	return qb.results
}

func (qb *QueryBuilder) matches(e Entity, skip int) bool {
	for i, s := range qb.include {
		if i != skip && !s.Has(e) {
			return false
		}
	}
	for _, s := range qb.exclude {
		if s.Has(e) {
			return false
		}
	}
	return true
}
