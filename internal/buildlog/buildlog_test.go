package buildlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modm-io/lbuild/internal/errors"
)

func TestAppendOrderPreserved(t *testing.T) {
	log := New("/out")

	for _, dest := range []string{"a.h", "b.h", "c.h"} {
		_, err := log.Log(Operation{Module: "repo:core", Destination: dest})
		require.NoError(t, err)
	}

	ops := log.Operations()
	require.Len(t, ops, 3)
	assert.Equal(t, "a.h", ops[0].Destination)
	assert.Equal(t, "c.h", ops[2].Destination)
}

func TestOverwriteByOtherModuleFails(t *testing.T) {
	log := New("/out")
	_, err := log.Log(Operation{Module: "repo:a", Destination: "shared.h"})
	require.NoError(t, err)

	_, err = log.Log(Operation{Module: "repo:b", Destination: "shared.h"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBuild)
	assert.Contains(t, err.Error(), "repo:a")

	// The same module may regenerate its own file.
	_, err = log.Log(Operation{Module: "repo:a", Destination: "shared.h"})
	require.NoError(t, err)
}

func TestPerModuleViewIncludesSubmodules(t *testing.T) {
	log := New("/out")
	_, err := log.Log(Operation{Module: "repo:core", Destination: "core.h"})
	require.NoError(t, err)
	_, err = log.Log(Operation{Module: "repo:core:heap", Destination: "heap.h"})
	require.NoError(t, err)
	_, err = log.Log(Operation{Module: "repo:corelib", Destination: "lib.h"})
	require.NoError(t, err)

	ops := log.OperationsForModule("repo:core")
	require.Len(t, ops, 2)
	assert.Equal(t, "core.h", ops[0].Destination)
	assert.Equal(t, "heap.h", ops[1].Destination)
}

func TestFreezeRejectsAppends(t *testing.T) {
	log := New("/out")
	_, err := log.Log(Operation{Module: "repo:a", Destination: "a.h"})
	require.NoError(t, err)

	log.Freeze()
	_, err = log.Log(Operation{Module: "repo:a", Destination: "b.h"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBuild)

	// Existing entries survive for diagnostics.
	assert.Len(t, log.Operations(), 1)
}

func TestModulesAndRepositories(t *testing.T) {
	log := New("/out")
	_, err := log.Log(Operation{Module: "repo:b", Destination: "b.h"})
	require.NoError(t, err)
	_, err = log.Log(Operation{Module: "repo:a", Destination: "a.h"})
	require.NoError(t, err)
	_, err = log.Log(Operation{Module: "other:m", Destination: "m.h"})
	require.NoError(t, err)

	assert.Equal(t, []string{"other:m", "repo:a", "repo:b"}, log.Modules())
	assert.Equal(t, []string{"other", "repo"}, log.Repositories())
}

func TestXMLRoundTrip(t *testing.T) {
	log := New("/project/out")
	_, err := log.Log(Operation{
		Module:      "repo:core",
		Source:      "/project/repo/core.h.in",
		Destination: "/project/out/core.h",
	})
	require.NoError(t, err)

	data, err := log.ToXML("/project")
	require.NoError(t, err)
	assert.Contains(t, string(data), `<module name="repo:core">`)

	parsed, err := FromXML(data, "/project")
	require.NoError(t, err)
	require.Len(t, parsed.Operations(), 1)
	assert.Equal(t, "/project/out", parsed.OutPath())
	assert.Equal(t, "repo:core", parsed.Operations()[0].Module)
	assert.Equal(t, "/project/repo/core.h.in", parsed.Operations()[0].Source)

	// Overwrite detection stays armed on a loaded log.
	_, err = parsed.Log(Operation{Module: "repo:other", Destination: "/project/out/core.h"})
	require.ErrorIs(t, err, errors.ErrBuild)
	assert.Contains(t, err.Error(), "repo:core")
}
