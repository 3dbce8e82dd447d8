package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modm-io/lbuild/internal/errors"
)

func TestExitCodeFromError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, ExitSuccess},
		{errors.ErrConfiguration, ExitConfigurationError},
		{errors.ErrNameCollision, ExitConfigurationError},
		{errors.ErrNotFound, ExitResolutionError},
		{errors.ErrAmbiguous, ExitResolutionError},
		{errors.ErrRequired, ExitOptionError},
		{errors.ErrParse, ExitOptionError},
		{errors.ErrValidation, ExitOptionError},
		{errors.ErrUnresolved, ExitDependencyError},
		{errors.ErrCycle, ExitDependencyError},
		{errors.ErrInactive, ExitDependencyError},
		{errors.ErrModuleValidate, ExitValidateError},
		{errors.ErrBuild, ExitBuildError},
		{errors.New("anything else"), ExitGeneralError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, ExitCodeFromError(tc.err))
	}
}

func TestExitCodeFromWrappedError(t *testing.T) {
	err := errors.Wrap(errors.ErrCycle, "a -> b -> a")
	assert.Equal(t, ExitDependencyError, ExitCodeFromError(err))

	hook := &errors.HookError{Node: "repo:a", Phase: "build", Err: errors.ErrBuild}
	assert.Equal(t, ExitBuildError, ExitCodeFromError(hook))
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "Dependency Error", ExitCodeName(ExitDependencyError))
	assert.Equal(t, "Unknown", ExitCodeName(42))
}

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{
		"discover", "discover-options", "discover-module-options",
		"discover-option", "validate", "build", "init", "update", "version",
	} {
		assert.Contains(t, names, expected)
	}
}
