// Package cmd provides CLI command implementations.
package cmd

import "github.com/modm-io/lbuild/internal/errors"

// Exit codes, one per fatal error class.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitConfigurationError indicates a malformed or cyclic
	// configuration.
	ExitConfigurationError = 2

	// ExitResolutionError indicates an identifier matched no node or
	// more than one.
	ExitResolutionError = 3

	// ExitOptionError indicates an option value failed to parse, to
	// validate, or was required and missing.
	ExitOptionError = 4

	// ExitDependencyError indicates an unresolved, inactive, or
	// cyclic module dependency.
	ExitDependencyError = 5

	// ExitValidateError indicates one or more modules failed the
	// validate phase.
	ExitValidateError = 6

	// ExitBuildError indicates the generation step failed.
	ExitBuildError = 7
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitConfigurationError:
		return "Configuration Error"
	case ExitResolutionError:
		return "Resolution Error"
	case ExitOptionError:
		return "Option Error"
	case ExitDependencyError:
		return "Dependency Error"
	case ExitValidateError:
		return "Validate Error"
	case ExitBuildError:
		return "Build Error"
	default:
		return "Unknown"
	}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errors.ErrConfiguration),
		errors.Is(err, errors.ErrNameCollision):
		return ExitConfigurationError
	case errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrAmbiguous):
		return ExitResolutionError
	case errors.Is(err, errors.ErrRequired),
		errors.Is(err, errors.ErrParse),
		errors.Is(err, errors.ErrValidation):
		return ExitOptionError
	case errors.Is(err, errors.ErrUnresolved),
		errors.Is(err, errors.ErrCycle),
		errors.Is(err, errors.ErrInactive):
		return ExitDependencyError
	case errors.Is(err, errors.ErrModuleValidate):
		return ExitValidateError
	case errors.Is(err, errors.ErrBuild):
		return ExitBuildError
	default:
		return ExitGeneralError
	}
}
