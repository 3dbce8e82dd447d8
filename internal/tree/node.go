// Package tree implements the owned repository/module hierarchy and
// identifier resolution against it.
//
// The structure is a forest below a synthetic root: repositories own
// modules, modules own submodules, options, queries, and collectors.
// The parent link is a non-owning back-reference used for fullname
// construction and ancestors-first ordering. The dependency graph is
// kept separately as declared identifier lists on each node; it is
// resolved and checked by the engine, not here.
package tree

import (
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/ident"
)

// Kind tags the node types of the forest.
type Kind int

// Node kinds.
const (
	KindRoot Kind = iota
	KindRepository
	KindModule
	KindOption
	KindQuery
	KindCollector
)

// String returns the lowercase kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindRepository:
		return "repository"
	case KindModule:
		return "module"
	case KindOption:
		return "option"
	case KindQuery:
		return "query"
	case KindCollector:
		return "collector"
	}
	return "unknown"
}

// Node is one member of the forest.
type Node struct {
	name        string
	fullname    string
	kind        Kind
	parent      *Node
	children    []*Node
	description string

	// Available tracks the activity decision of prepare. Modules
	// start unavailable until their prepare hook returns true; all
	// other kinds are always available.
	available bool

	// Selected marks membership in the active closure.
	selected bool

	// Filename of the defining file, anchor for relative paths.
	filename string

	// Declared dependency identifiers, possibly partial. Resolution
	// happens in the engine once the full tree exists.
	dependencyNames []string

	// Payload holds the kind-specific data: *option.Option for
	// options, query and collector state for those kinds.
	Payload any
}

// NewRoot creates the synthetic forest root.
func NewRoot() *Node {
	return &Node{kind: KindRoot, available: true, selected: true}
}

// New creates a detached node of the given kind.
func New(kind Kind, name string) *Node {
	return &Node{
		kind:      kind,
		name:      name,
		fullname:  name,
		available: kind != KindModule,
		selected:  true,
	}
}

// Name returns the local name segment.
func (n *Node) Name() string { return n.name }

// FullName returns the `:`-joined qualified name.
func (n *Node) FullName() string { return n.fullname }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the owning node, nil for roots of the forest.
func (n *Node) Parent() *Node {
	if n.parent == nil || n.parent.kind == KindRoot {
		return nil
	}
	return n.parent
}

// Root returns the synthetic forest root.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Repository returns the repository ancestor, or the node itself for
// repositories.
func (n *Node) Repository() *Node {
	r := n
	for r != nil && r.kind != KindRepository {
		r = r.parent
	}
	return r
}

// Children returns the owned children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Description returns the node description.
func (n *Node) Description() string { return n.description }

// SetDescription sets the node description.
func (n *Node) SetDescription(text string) { n.description = text }

// Filename returns the path of the defining file.
func (n *Node) Filename() string { return n.filename }

// SetFilename records the path of the defining file.
func (n *Node) SetFilename(path string) { n.filename = path }

// Available reports whether the node takes part in later phases.
func (n *Node) Available() bool { return n.available }

// SetAvailable records the activity decision of prepare.
func (n *Node) SetAvailable(available bool) { n.available = available }

// Selected reports membership in the active closure.
func (n *Node) Selected() bool { return n.selected }

// SetSelected marks or unmarks closure membership.
func (n *Node) SetSelected(selected bool) { n.selected = selected }

// Active reports whether the node is available and inside the active
// closure, including every ancestor: an inactive module excludes
// everything declared beneath it.
func (n *Node) Active() bool {
	for p := n; p != nil && p.kind != KindRoot; p = p.parent {
		if !p.available || !p.selected {
			return false
		}
	}
	return true
}

// AvailableInTree reports whether the node and every ancestor are
// available. A module whose prepare declined hides its whole subtree,
// regardless of what the submodules decided for themselves.
func (n *Node) AvailableInTree() bool {
	for p := n; p != nil && p.kind != KindRoot; p = p.parent {
		if !p.available {
			return false
		}
	}
	return true
}

// Add attaches a child, fixing its fullname below this node. A
// duplicate name within this scope is a fatal name collision.
func (n *Node) Add(child *Node) error {
	for _, existing := range n.children {
		if existing.name == child.name {
			return errors.Wrap(errors.ErrNameCollision,
				"name %q is already defined in %q", child.name, n.fullname)
		}
	}
	child.parent = n
	if n.kind == KindRoot {
		child.fullname = child.name
	} else {
		child.fullname = n.fullname + ident.Separator + child.name
	}
	// Renaming cascades so programmatically added subtrees keep
	// consistent qualified names.
	for _, grandchild := range child.children {
		grandchild.refresh(child)
	}
	n.children = append(n.children, child)
	return nil
}

func (n *Node) refresh(parent *Node) {
	n.fullname = parent.fullname + ident.Separator + n.name
	for _, child := range n.children {
		child.refresh(n)
	}
}

// AddDependencies appends declared dependency identifiers. Partial
// names are allowed; they resolve later against this node's context.
func (n *Node) AddDependencies(names ...string) {
	n.dependencyNames = append(n.dependencyNames, names...)
}

// DependencyNames returns the declared dependency identifiers in
// declaration order.
func (n *Node) DependencyNames() []string {
	out := make([]string, len(n.dependencyNames))
	copy(out, n.dependencyNames)
	return out
}

// Walk visits the subtree in declaration order, parent before child.
func (n *Node) Walk(visit func(*Node) error) error {
	if n.kind != KindRoot {
		if err := visit(n); err != nil {
			return err
		}
	}
	for _, child := range n.children {
		if err := child.Walk(visit); err != nil {
			return err
		}
	}
	return nil
}

// FindAll returns every node of the given kind in the subtree, in
// declaration order. With availableOnly, unavailable nodes and their
// subtrees are skipped but remain visible to plain discovery walks.
func (n *Node) FindAll(kind Kind, availableOnly bool) []*Node {
	var found []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if availableOnly && node.kind != KindRoot && !node.available {
			return
		}
		if node.kind == kind && node != n {
			found = append(found, node)
		}
		for _, child := range node.children {
			walk(child)
		}
	}
	walk(n)
	return found
}

// Options returns the options directly owned by this node.
func (n *Node) Options() []*Node {
	var out []*Node
	for _, child := range n.children {
		if child.kind == KindOption {
			out = append(out, child)
		}
	}
	return out
}

// Submodules returns the modules directly owned by this node.
func (n *Node) Submodules() []*Node {
	var out []*Node
	for _, child := range n.children {
		if child.kind == KindModule {
			out = append(out, child)
		}
	}
	return out
}
