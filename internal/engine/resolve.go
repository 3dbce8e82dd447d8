package engine

import (
	"sort"

	"github.com/modm-io/lbuild/internal/config"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/tree"
)

// Resolve computes the active closure from the configuration's
// selected module set and orders it for execution. It must run after
// Prepare and before any phase.
func (e *Engine) Resolve(merged *config.Merged) error {
	for _, entry := range e.modules {
		entry.node.SetSelected(false)
	}

	seed, err := e.selectedModules(merged)
	if err != nil {
		return err
	}

	closure, err := e.closure(seed)
	if err != nil {
		return err
	}
	for _, entry := range closure {
		entry.node.SetSelected(true)
	}

	e.order, err = sortTopologically(closure)
	return err
}

// Ordered returns the active closure in execution order: parents and
// dependencies first, declaration order breaking ties.
func (e *Engine) Ordered() []*tree.Node {
	nodes := make([]*tree.Node, len(e.order))
	for i, entry := range e.order {
		nodes[i] = entry.node
	}
	return nodes
}

// selectedModules resolves the configuration's module selection.
// Patterns may select many modules at once. A module whose prepare
// returned inactive is skipped, never an error: the selection names
// what to build if possible, dependencies name what must exist.
func (e *Engine) selectedModules(merged *config.Merged) ([]*moduleEntry, error) {
	var seed []*moduleEntry
	for _, name := range merged.Modules {
		nodes := e.root.ResolveAll(name)
		found := false
		for _, node := range nodes {
			if node.Kind() != tree.KindModule {
				continue
			}
			found = true
			if !node.AvailableInTree() {
				output.Warn("selected module is not available", "name", node.FullName())
				continue
			}
			seed = append(seed, e.byNode[node])
		}
		if !found {
			return nil, &errors.NotFoundError{Query: name}
		}
	}
	return seed, nil
}

// closure expands the seed over parent links, declared dependencies,
// and option dependency handlers, resolving every reference against
// the declaring module's context. An unknown or inactive dependency
// is fatal.
func (e *Engine) closure(seed []*moduleEntry) ([]*moduleEntry, error) {
	var closure []*moduleEntry
	visited := make(map[*moduleEntry]bool)

	queue := append([]*moduleEntry(nil), seed...)
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]
		if visited[entry] {
			continue
		}
		visited[entry] = true
		closure = append(closure, entry)

		depends, err := e.dependenciesOf(entry)
		if err != nil {
			return nil, err
		}
		entry.depends = depends
		queue = append(queue, depends...)
	}
	return closure, nil
}

func (e *Engine) dependenciesOf(entry *moduleEntry) ([]*moduleEntry, error) {
	var depends []*moduleEntry

	// The parent chain is an implicit dependency: a submodule cannot
	// be active without its ancestors.
	if parent := e.byNode[entry.node.Parent()]; parent != nil {
		if !parent.node.Available() {
			return nil, errors.Wrap(errors.ErrInactive,
				"module %q is declared beneath inactive module %q",
				entry.node.FullName(), parent.node.FullName())
		}
		depends = append(depends, parent)
	}

	names := entry.node.DependencyNames()
	for _, opt := range entry.node.Options() {
		optional, err := opt.Payload.(*option.Option).DependencyModules()
		if err != nil {
			return nil, err
		}
		names = append(names, optional...)
	}

	for _, name := range names {
		target, err := entry.node.ResolveKind(name, tree.KindModule)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrUnresolved,
				"module %q depends on unknown module %q",
				entry.node.FullName(), name)
		}
		if err != nil {
			return nil, err
		}
		if !target.AvailableInTree() {
			return nil, errors.Wrap(errors.ErrInactive,
				"module %q depends on %q",
				entry.node.FullName(), target.FullName())
		}
		depends = append(depends, e.byNode[target])
	}
	return depends, nil
}

// sortTopologically orders the closure so every module follows its
// parents and dependencies. Ties fall back to declaration order. A
// cycle is fatal and reported with its full path.
func sortTopologically(closure []*moduleEntry) ([]*moduleEntry, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	marks := make(map[*moduleEntry]int, len(closure))
	var order []*moduleEntry
	var stack []*moduleEntry

	var visit func(entry *moduleEntry) error
	visit = func(entry *moduleEntry) error {
		switch marks[entry] {
		case done:
			return nil
		case visiting:
			return &errors.CycleError{Path: cyclePath(stack, entry)}
		}
		marks[entry] = visiting
		stack = append(stack, entry)

		for _, dep := range entry.depends {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		marks[entry] = done
		order = append(order, entry)
		return nil
	}

	for _, entry := range declarationOrder(closure) {
		if err := visit(entry); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath extracts the cycle from the DFS stack, repeating the
// entry module at both ends.
func cyclePath(stack []*moduleEntry, entry *moduleEntry) []string {
	var path []string
	for i, e := range stack {
		if e == entry {
			for _, cyclic := range stack[i:] {
				path = append(path, cyclic.node.FullName())
			}
			break
		}
	}
	return append(path, entry.node.FullName())
}

func declarationOrder(entries []*moduleEntry) []*moduleEntry {
	sorted := append([]*moduleEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].order < sorted[j].order
	})
	return sorted
}
