// Package registry implements cross-module data sharing: queries
// (shared computations, pure or memoized) and collectors (typed,
// append-only aggregation points read during late phases).
package registry

import (
	"sync"

	"github.com/modm-io/lbuild/internal/errors"
)

// Func is a pure query function. It is re-invoked on every access
// with caller-supplied input and must not depend on build order; that
// contract is documented, not enforced at runtime.
type Func func(args ...any) (any, error)

// Factory computes the value of a cached query. It runs at most once
// per build, on first access by any module.
type Factory func() (any, error)

// Query is a named shared computation exposed between modules.
type Query struct {
	Name        string
	Description string

	fn      Func
	factory Factory

	once  sync.Once
	value any
	err   error
}

// NewQuery creates a pure query.
func NewQuery(name string, fn Func) *Query {
	return &Query{Name: name, fn: fn}
}

// NewCachedQuery creates a memoized query. The factory executes on
// first access; the result never changes within one build.
func NewCachedQuery(name string, factory Factory) *Query {
	return &Query{Name: name, factory: factory}
}

// Cached reports whether the query memoizes its result.
func (q *Query) Cached() bool { return q.factory != nil }

// Invoke accesses the query. Pure queries run their function with the
// given arguments; cached queries ignore arguments and compute once.
func (q *Query) Invoke(args ...any) (any, error) {
	if q.factory != nil {
		q.once.Do(func() {
			q.value, q.err = q.factory()
		})
		return q.value, q.err
	}
	if q.fn == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "query %q has no function", q.Name)
	}
	return q.fn(args...)
}
