package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modm-io/lbuild/internal/errors"
)

// fixture builds:
//
//	repo
//	├── core          (module)
//	│   ├── heap      (module)
//	│   │   └── size  (option)
//	│   └── assert    (option)
//	├── driver        (module)
//	│   └── uart      (module)
//	└── uart          (module)
//	other
//	└── uart          (module)
func fixture(t *testing.T) *Node {
	t.Helper()
	root := NewRoot()

	repo := New(KindRepository, "repo")
	require.NoError(t, root.Add(repo))

	core := New(KindModule, "core")
	require.NoError(t, repo.Add(core))
	heap := New(KindModule, "heap")
	require.NoError(t, core.Add(heap))
	require.NoError(t, heap.Add(New(KindOption, "size")))
	require.NoError(t, core.Add(New(KindOption, "assert")))

	driver := New(KindModule, "driver")
	require.NoError(t, repo.Add(driver))
	require.NoError(t, driver.Add(New(KindModule, "uart")))
	require.NoError(t, repo.Add(New(KindModule, "uart")))

	other := New(KindRepository, "other")
	require.NoError(t, root.Add(other))
	require.NoError(t, other.Add(New(KindModule, "uart")))

	// Mark all modules available, as a successful prepare would.
	for _, m := range root.FindAll(KindModule, false) {
		m.SetAvailable(true)
	}
	return root
}

func TestFullNameConstruction(t *testing.T) {
	root := fixture(t)
	heap, err := root.Resolve("repo:core:heap")
	require.NoError(t, err)
	assert.Equal(t, "repo:core:heap", heap.FullName())
	assert.Equal(t, "repo", heap.Repository().Name())
	assert.Equal(t, "repo:core", heap.Parent().FullName())
}

func TestDuplicateNameIsCollision(t *testing.T) {
	root := fixture(t)
	repo, err := root.Resolve("repo")
	require.NoError(t, err)

	err = repo.Add(New(KindModule, "core"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNameCollision)
}

func TestResolveFullyQualified(t *testing.T) {
	root := fixture(t)
	node, err := root.Resolve("repo:core:heap:size")
	require.NoError(t, err)
	assert.Equal(t, "repo:core:heap:size", node.FullName())
}

func TestResolveNotFound(t *testing.T) {
	root := fixture(t)
	_, err := root.Resolve("repo:missing:nothing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.NotErrorIs(t, err, errors.ErrAmbiguous)
}

func TestResolveAmbiguous(t *testing.T) {
	root := fixture(t)
	_, err := root.Resolve("*:uart")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAmbiguous)

	var ambiguousErr *errors.AmbiguousError
	require.ErrorAs(t, err, &ambiguousErr)
	assert.ElementsMatch(t,
		[]string{"repo:uart", "other:uart"},
		append([]string{}, ambiguousErr.Candidates...))
}

func TestResolveNearestDisambiguates(t *testing.T) {
	root := fixture(t)
	heap, err := root.Resolve("repo:core:heap")
	require.NoError(t, err)

	// Globally "*:uart" is ambiguous, but filling the repository
	// from the caller's context picks repo:uart.
	node, err := heap.Resolve(":uart")
	require.NoError(t, err)
	assert.Equal(t, "repo:uart", node.FullName())
}

func TestResolveNearestContextFirst(t *testing.T) {
	root := fixture(t)
	core, err := root.Resolve("repo:core")
	require.NoError(t, err)

	// Bare token resolves to the caller's direct child first.
	heap, err := core.Resolve("heap")
	require.NoError(t, err)
	assert.Equal(t, "repo:core:heap", heap.FullName())

	// Widening: "driver" is not a child of core, found on the
	// repository level.
	driver, err := core.Resolve("driver")
	require.NoError(t, err)
	assert.Equal(t, "repo:driver", driver.FullName())
}

func TestResolvePartialFromContext(t *testing.T) {
	root := fixture(t)
	heap, err := root.Resolve("repo:core:heap")
	require.NoError(t, err)

	// ":driver:uart" fills the repository from the caller.
	uart, err := heap.Resolve(":driver:uart")
	require.NoError(t, err)
	assert.Equal(t, "repo:driver:uart", uart.FullName())
}

func TestResolveKindMismatch(t *testing.T) {
	root := fixture(t)
	_, err := root.ResolveKind("repo:core:assert", KindModule)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Contains(t, err.Error(), "option")
}

func TestResolveAllSubtree(t *testing.T) {
	root := fixture(t)
	nodes := root.ResolveAll("repo:core:**")
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.FullName()
	}
	assert.Equal(t, []string{
		"repo:core",
		"repo:core:heap",
		"repo:core:heap:size",
		"repo:core:assert",
	}, names)
}

func TestActiveRequiresAncestors(t *testing.T) {
	root := fixture(t)
	heap, err := root.Resolve("repo:core:heap")
	require.NoError(t, err)
	core := heap.Parent()

	assert.True(t, heap.Active())

	// Deactivating the parent excludes the whole subtree.
	core.SetAvailable(false)
	assert.False(t, heap.Active())

	core.SetAvailable(true)
	core.SetSelected(false)
	assert.False(t, heap.Active())
}

func TestAvailableInTreeWalksAncestors(t *testing.T) {
	root := fixture(t)
	heap, err := root.Resolve("repo:core:heap")
	require.NoError(t, err)
	core := heap.Parent()

	assert.True(t, heap.AvailableInTree())

	// The submodule keeps its own flag, the parent still hides it.
	core.SetAvailable(false)
	assert.True(t, heap.Available())
	assert.False(t, heap.AvailableInTree())
}

func TestFindAllSkipsUnavailableSubtrees(t *testing.T) {
	root := fixture(t)
	core, err := root.Resolve("repo:core")
	require.NoError(t, err)
	core.SetAvailable(false)

	available := root.FindAll(KindModule, true)
	for _, m := range available {
		assert.NotContains(t, m.FullName(), "core")
	}

	// Discovery walks still see everything.
	all := root.FindAll(KindModule, false)
	assert.Len(t, all, 6)
}

func TestAddRefreshesSubtreeNames(t *testing.T) {
	root := fixture(t)
	driver, err := root.Resolve("repo:driver")
	require.NoError(t, err)

	spi := New(KindModule, "spi")
	require.NoError(t, spi.Add(New(KindOption, "speed")))
	require.NoError(t, driver.Add(spi))

	node, err := root.Resolve("repo:driver:spi:speed")
	require.NoError(t, err)
	assert.Equal(t, "repo:driver:spi:speed", node.FullName())
}
