package registry

import (
	"sync"

	"github.com/modm-io/lbuild/internal/buildlog"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
)

// Collector is a typed, append-only multi-map from Operation to the
// ordered sequence of values added under it. Values are written
// during build and read from post_build onward.
//
// Per-module insertion order is preserved; the relative order of
// contributions across different modules is unspecified. Values added
// without an explicit operation fall under a synthetic per-module key
// and keep module-scoped FIFO order.
type Collector struct {
	Name        string
	Description string

	typ option.Type

	mu      sync.Mutex
	entries []entry
	sealed  bool
}

type entry struct {
	op     buildlog.Operation
	values []any
}

// NewCollector creates a collector for the given value kind. The kind
// bundle is shared with options, minus default and dependency
// handling.
func NewCollector(name, description string, typ option.Type) *Collector {
	return &Collector{Name: name, Description: description, typ: typ}
}

// Kind returns the value kind of this collector.
func (c *Collector) Kind() option.Kind { return c.typ.Kind() }

// Add appends values attributed to one operation. Raw strings are
// parsed with the collector's kind; already-typed values are
// validated only. The first invalid value aborts the whole
// contribution.
func (c *Collector) Add(op buildlog.Operation, values ...any) error {
	checked := make([]any, 0, len(values))
	for _, value := range values {
		typed, err := c.check(value)
		if err != nil {
			return errors.Wrap(errors.ErrValidation,
				"collector %q rejected value '%v': %v", c.Name, value, err)
		}
		checked = append(checked, typed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return errors.Wrap(errors.ErrBuild,
			"collector %q is read-only outside the build phase", c.Name)
	}
	c.entries = append(c.entries, entry{op: op, values: checked})
	return nil
}

// AddFromModule appends values under the synthetic key of a module
// that has no explicit operation to attribute them to.
func (c *Collector) AddFromModule(module string, values ...any) error {
	return c.Add(buildlog.Operation{Module: module}, values...)
}

func (c *Collector) check(value any) (any, error) {
	if raw, ok := value.(string); ok {
		typed, err := c.typ.Parse(raw)
		if err != nil {
			return nil, err
		}
		if err := c.typ.Validate(typed); err != nil {
			return nil, err
		}
		return typed, nil
	}
	if err := c.typ.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// Seal closes write access once the build phase is over.
func (c *Collector) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

// Values extracts the aggregated sequence. With unique, duplicates
// are dropped keeping first-occurrence order; otherwise duplicates
// and exact per-module insertion order are preserved. A non-nil
// filter restricts the extraction by operation key.
func (c *Collector) Values(unique bool, filter func(buildlog.Operation) bool) []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var values []any
	for _, e := range c.entries {
		if filter != nil && !filter(e.op) {
			continue
		}
		values = append(values, e.values...)
	}
	if !unique {
		return values
	}

	seen := make(map[any]struct{}, len(values))
	deduped := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		deduped = append(deduped, v)
	}
	return deduped
}

// Operations returns the distinct operation keys in first-occurrence
// order.
func (c *Collector) Operations() []buildlog.Operation {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[buildlog.Operation]struct{}, len(c.entries))
	var ops []buildlog.Operation
	for _, e := range c.entries {
		if _, ok := seen[e.op]; ok {
			continue
		}
		seen[e.op] = struct{}{}
		ops = append(ops, e.op)
	}
	return ops
}
