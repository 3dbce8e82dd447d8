package env

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modm-io/lbuild/internal/buildlog"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/registry"
	"github.com/modm-io/lbuild/internal/tree"
)

func fixture(t *testing.T) (afero.Fs, *tree.Node, *buildlog.BuildLog) {
	t.Helper()

	root := tree.NewRoot()
	repo := tree.New(tree.KindRepository, "repo")
	require.NoError(t, root.Add(repo))

	core := tree.New(tree.KindModule, "core")
	core.SetAvailable(true)
	core.SetFilename("/repo/core/module.xml")
	require.NoError(t, repo.Add(core))

	size := tree.New(tree.KindOption, "size")
	size.Payload = option.NewNumeric("size", "").Default("16")
	require.NoError(t, core.Add(size))

	flags := tree.New(tree.KindCollector, "cflags")
	flags.Payload = registry.NewCollector("cflags", "", option.NewString("cflags", "").Type())
	require.NoError(t, repo.Add(flags))

	double := tree.New(tree.KindQuery, "double")
	double.Payload = registry.NewQuery("double", func(args ...any) (any, error) {
		return args[0].(int64) * 2, nil
	})
	require.NoError(t, core.Add(double))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/core/header.h",
		[]byte("#pragma once\n"), 0o644))

	return fs, core, buildlog.New("/out")
}

func TestCopyRecordsOperation(t *testing.T) {
	fs, core, log := fixture(t)
	e := New(fs, core, log)

	require.NoError(t, e.Copy("header.h", ""))

	content, err := afero.ReadFile(fs, "/out/header.h")
	require.NoError(t, err)
	assert.Equal(t, "#pragma once\n", string(content))

	ops := log.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "repo:core", ops[0].Module)
	assert.Equal(t, "/repo/core/header.h", ops[0].Source)
	assert.Equal(t, "/out/header.h", ops[0].Destination)
}

func TestCopyDirectory(t *testing.T) {
	fs, core, log := fixture(t)
	require.NoError(t, afero.WriteFile(fs, "/repo/core/inc/a.h", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/core/inc/sub/b.h", []byte("b"), 0o644))

	e := New(fs, core, log)
	require.NoError(t, e.Copy("inc", "include"))

	for _, path := range []string{"/out/include/a.h", "/out/include/sub/b.h"} {
		exists, _ := afero.Exists(fs, path)
		assert.True(t, exists, path)
	}
	assert.Len(t, log.Operations(), 2)
}

func TestTemplateRendersOptions(t *testing.T) {
	fs, core, log := fixture(t)
	require.NoError(t, afero.WriteFile(fs, "/repo/core/config.h.tmpl",
		[]byte("#define HEAP {{ option \":core:size\" }}\n#define APP {{ .app }}\n"), 0o644))

	e := New(fs, core, log)
	e.SetSubstitution("app", "demo")
	require.NoError(t, e.Template("config.h.tmpl", "", nil))

	content, err := afero.ReadFile(fs, "/out/config.h")
	require.NoError(t, err)
	assert.Equal(t, "#define HEAP 16\n#define APP demo\n", string(content))
}

func TestTemplatePerCallDataOverrides(t *testing.T) {
	fs, core, log := fixture(t)
	require.NoError(t, afero.WriteFile(fs, "/repo/core/app.tmpl",
		[]byte("{{ .app }}"), 0o644))

	e := New(fs, core, log)
	e.SetSubstitution("app", "demo")
	require.NoError(t, e.Template("app.tmpl", "name.txt", map[string]any{"app": "other"}))

	content, err := afero.ReadFile(fs, "/out/name.txt")
	require.NoError(t, err)
	assert.Equal(t, "other", string(content))
}

func TestOverwriteByOtherModuleFails(t *testing.T) {
	fs, core, log := fixture(t)

	other := tree.New(tree.KindModule, "other")
	other.SetAvailable(true)
	other.SetFilename("/repo/other/module.xml")
	require.NoError(t, core.Repository().Add(other))
	require.NoError(t, afero.WriteFile(fs, "/repo/other/header.h", []byte("x"), 0o644))

	require.NoError(t, New(fs, core, log).Copy("header.h", ""))

	err := New(fs, other, log).Copy("header.h", "")
	require.ErrorIs(t, err, errors.ErrBuild)
	assert.Contains(t, err.Error(), "repo:core")
}

func TestOptionAccess(t *testing.T) {
	fs, core, log := fixture(t)
	e := New(fs, core, log)

	value, err := e.Get("size")
	require.NoError(t, err)
	assert.Equal(t, int64(16), value)

	assert.Equal(t, "fallback", e.GetDefault("missing", "fallback"))
	assert.True(t, e.Has("size"))
	assert.False(t, e.Has("missing"))
}

func TestHasModule(t *testing.T) {
	fs, core, log := fixture(t)
	e := New(fs, core, log)

	assert.True(t, e.HasModule("repo:core"))
	core.SetSelected(false)
	assert.False(t, e.HasModule("repo:core"))
	assert.False(t, e.HasModule("repo:missing"))
}

func TestQueryInvocation(t *testing.T) {
	fs, core, log := fixture(t)
	e := New(fs, core, log)

	result, err := e.Query("double", int64(21))
	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
}

func TestCollect(t *testing.T) {
	fs, core, log := fixture(t)
	e := New(fs, core, log)

	require.NoError(t, e.Collect(":cflags", "-Wall", "-Os"))

	values, err := e.CollectorValues(":cflags", false)
	require.NoError(t, err)
	assert.Equal(t, []any{"-Wall", "-Os"}, values)
}
