// Package ident implements the qualified identifier grammar used to
// name repositories, modules, options, queries, and collectors.
//
// Canonical form is `repository:module:...:leaf`. Any field may be
// empty, which acts as a wildcard over that level. A `*` matches
// within one segment, a final `**` segment matches the entire subtree
// below the preceding prefix. The matcher is segment-wise over the
// `:`-delimited grammar; filesystem glob primitives are deliberately
// not used since alphabet and separators differ.
package ident

import "strings"

// Separator delimits the segments of a qualified identifier.
const Separator = ":"

// Identifier is a parsed, possibly partial or wildcarded name.
type Identifier struct {
	parts []string
}

// Parse splits a raw identifier into its segments. Empty fields are
// normalized to the single-segment wildcard "*".
func Parse(raw string) Identifier {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, Separator)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "*"
		}
		parts[i] = p
	}
	return Identifier{parts: parts}
}

// String reassembles the identifier. Parsing an unambiguous fully
// qualified name and re-serializing it is idempotent.
func (id Identifier) String() string {
	return strings.Join(id.parts, Separator)
}

// Parts returns a copy of the identifier segments.
func (id Identifier) Parts() []string {
	out := make([]string, len(id.parts))
	copy(out, id.parts)
	return out
}

// Depth returns the number of segments.
func (id Identifier) Depth() int { return len(id.parts) }

// IsLeafOnly reports whether the identifier is a bare token without
// any separator, meaning "direct child of the current context".
func (id Identifier) IsLeafOnly() bool { return len(id.parts) == 1 }

// IsPattern reports whether any segment contains a wildcard.
func (id Identifier) IsPattern() bool {
	for _, p := range id.parts {
		if strings.ContainsAny(p, "*?") {
			return true
		}
	}
	return false
}

// Matches reports whether the fully qualified name matches this
// identifier pattern. A trailing "**" segment matches the node at the
// prefix as well as everything below it; otherwise the depths must be
// equal and every segment must glob-match.
func (id Identifier) Matches(fullname string) bool {
	name := strings.Split(fullname, Separator)
	pattern := id.parts

	if n := len(pattern); n > 0 && pattern[n-1] == "**" {
		prefix := pattern[:n-1]
		if len(name) < len(prefix) {
			return false
		}
		return matchSegments(prefix, name[:len(prefix)])
	}

	if len(pattern) != len(name) {
		return false
	}
	return matchSegments(pattern, name)
}

// Fill completes a partial identifier with the segments of a context
// name. A bare leaf token is scoped below the context itself; empty
// wildcard fields are substituted by the corresponding context
// segment where one exists.
func (id Identifier) Fill(contextName string) Identifier {
	context := strings.Split(contextName, Separator)
	pattern := id.Parts()

	if len(pattern) == 1 {
		pattern = append(context, pattern...)
		return Identifier{parts: pattern}
	}

	if len(context) > len(pattern) {
		context = context[:len(pattern)]
	}
	filled := make([]string, len(pattern))
	for i, part := range pattern {
		if part == "*" && i < len(context) {
			filled[i] = context[i]
		} else {
			filled[i] = part
		}
	}
	return Identifier{parts: filled}
}

func matchSegments(pattern, name []string) bool {
	for i, p := range pattern {
		if !matchSegment(p, name[i]) {
			return false
		}
	}
	return true
}

// matchSegment glob-matches one segment: `*` matches any run of
// characters, `?` matches exactly one. Iterative with single-star
// backtracking.
func matchSegment(pattern, s string) bool {
	var pi, si int
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
