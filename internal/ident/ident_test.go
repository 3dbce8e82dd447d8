package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"repo",
		"repo:module",
		"repo:module:sub:option",
	}
	for _, c := range cases {
		assert.Equal(t, c, Parse(c).String())
	}
}

func TestParseNormalizesEmptyFields(t *testing.T) {
	id := Parse(":module:option")
	assert.Equal(t, "*:module:option", id.String())

	id = Parse("repo::option")
	assert.Equal(t, "repo:*:option", id.String())
}

func TestLeafOnly(t *testing.T) {
	assert.True(t, Parse("leaf").IsLeafOnly())
	assert.False(t, Parse("repo:leaf").IsLeafOnly())
}

func TestMatchesExact(t *testing.T) {
	id := Parse("repo:module:option")
	assert.True(t, id.Matches("repo:module:option"))
	assert.False(t, id.Matches("repo:module"))
	assert.False(t, id.Matches("repo:module:option:sub"))
	assert.False(t, id.Matches("repo:module:other"))
}

func TestMatchesWildcardSegment(t *testing.T) {
	id := Parse("repo:*:option")
	assert.True(t, id.Matches("repo:a:option"))
	assert.True(t, id.Matches("repo:b:option"))
	assert.False(t, id.Matches("repo:a:b:option"))

	id = Parse("repo:mod*")
	assert.True(t, id.Matches("repo:module"))
	assert.True(t, id.Matches("repo:mod"))
	assert.False(t, id.Matches("repo:other"))
}

func TestMatchesSubtree(t *testing.T) {
	id := Parse("repo:module:**")
	assert.True(t, id.Matches("repo:module"))
	assert.True(t, id.Matches("repo:module:sub"))
	assert.True(t, id.Matches("repo:module:sub:deeper"))
	assert.False(t, id.Matches("repo:other:sub"))
	assert.False(t, id.Matches("repo"))
}

func TestMatchesQuestionMark(t *testing.T) {
	id := Parse("repo:m?d")
	assert.True(t, id.Matches("repo:mod"))
	assert.True(t, id.Matches("repo:mid"))
	assert.False(t, id.Matches("repo:mood"))
}

func TestFillLeafScopesToContext(t *testing.T) {
	id := Parse("leaf").Fill("repo:module")
	assert.Equal(t, "repo:module:leaf", id.String())
}

func TestFillWildcardsFromContext(t *testing.T) {
	// Empty fields take the corresponding context segment.
	id := Parse("::option").Fill("repo:module:sub")
	assert.Equal(t, "repo:module:option", id.String())

	// Explicit segments are kept.
	id = Parse(":other:option").Fill("repo:module:sub")
	assert.Equal(t, "repo:other:option", id.String())
}

func TestFillShortContext(t *testing.T) {
	// A context shorter than the pattern fills only what it has.
	id := Parse(":module:option").Fill("repo")
	assert.Equal(t, "repo:module:option", id.String())
}

func TestPartsIsACopy(t *testing.T) {
	id := Parse("repo:module")
	parts := id.Parts()
	require.Len(t, parts, 2)
	parts[0] = "mutated"
	assert.Equal(t, "repo:module", id.String())
}

func TestMatchSegmentBacktracking(t *testing.T) {
	assert.True(t, matchSegment("*st*ng", "astonishing"))
	assert.False(t, matchSegment("*st*ng", "astonish"))
	assert.True(t, matchSegment("*", ""))
	assert.True(t, matchSegment("a*", "a"))
	assert.False(t, matchSegment("a*b", "a"))
}
