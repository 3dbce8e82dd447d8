package tree

import (
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/ident"
)

// Resolve resolves a possibly partial or wildcarded identifier against
// this node as the calling context and returns exactly one match.
//
// A bare token names a direct child of the calling context; the
// search widens one ancestor at a time up to the repository and then
// the whole forest, stopping at the first level that yields any
// candidate. A qualified pattern is first matched globally; when that
// is not unique, its wildcard fields are filled from the context
// chain nearest-first, so the least ambiguous candidate set closest
// to the caller wins. Zero candidates at every level is ErrNotFound,
// more than one at the stopping level is ErrAmbiguous carrying the
// full candidate list.
func (n *Node) Resolve(query string) (*Node, error) {
	pattern := ident.Parse(query)
	root := n.Root()

	if pattern.IsLeafOnly() {
		return n.resolveLeaf(query, pattern)
	}

	global := match(root, pattern)
	if len(global) == 1 {
		return global[0], nil
	}

	for ctx := n; ctx != nil && ctx.kind != KindRoot; ctx = ctx.parent {
		filled := pattern.Fill(ctx.fullname)
		candidates := match(root, filled)
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		if len(candidates) > 1 {
			return nil, ambiguous(query, candidates)
		}
	}

	if len(global) > 1 {
		return nil, ambiguous(query, global)
	}
	return nil, &errors.NotFoundError{Query: query, Context: n.fullname}
}

// resolveLeaf widens a bare token from the caller's own children over
// its ancestors to the repositories of the forest.
func (n *Node) resolveLeaf(query string, pattern ident.Identifier) (*Node, error) {
	token := pattern.Parts()[0]
	for ctx := n; ctx != nil; ctx = ctx.parent {
		var candidates []*Node
		for _, child := range ctx.children {
			if ident.Parse(token).Matches(child.name) {
				candidates = append(candidates, child)
			}
		}
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		if len(candidates) > 1 {
			return nil, ambiguous(query, candidates)
		}
	}
	return nil, &errors.NotFoundError{Query: query, Context: n.fullname}
}

// ResolveKind resolves an identifier and checks the node kind.
func (n *Node) ResolveKind(query string, kind Kind) (*Node, error) {
	node, err := n.Resolve(query)
	if err != nil {
		return nil, err
	}
	if node.kind != kind {
		return nil, errors.Wrap(errors.ErrNotFound,
			"%q is of type %q, but searching for %q",
			node.fullname, node.kind, kind)
	}
	return node, nil
}

// ResolveAll returns every node matching the pattern anywhere in the
// forest, in declaration order. Used by discovery tooling; unlike
// Resolve it never fails on multiple matches.
func (n *Node) ResolveAll(query string) []*Node {
	pattern := ident.Parse(query)
	root := n.Root()
	candidates := match(root, pattern)
	if len(candidates) == 0 && !pattern.IsLeafOnly() {
		for ctx := n; ctx != nil && ctx.kind != KindRoot; ctx = ctx.parent {
			candidates = match(root, pattern.Fill(ctx.fullname))
			if len(candidates) > 0 {
				break
			}
		}
	}
	return candidates
}

func match(root *Node, pattern ident.Identifier) []*Node {
	var found []*Node
	_ = root.Walk(func(node *Node) error {
		if pattern.Matches(node.fullname) {
			found = append(found, node)
		}
		return nil
	})
	return found
}

func ambiguous(query string, candidates []*Node) error {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.fullname
	}
	return &errors.AmbiguousError{Query: query, Candidates: names}
}
