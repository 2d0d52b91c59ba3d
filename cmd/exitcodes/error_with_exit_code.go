package exitcodes

import (
	"errors"

	"github.com/trailofbits/ccompile/compilation/errs"
)

// ErrorWithExitCode is an `error` type that wraps an existing error and exit code, providing exit codes
// for a given error if they are bubbled up to the top-level.
type ErrorWithExitCode struct {
	err      error
	exitCode int
}

// NewErrorWithExitCode creates a new error (ErrorWithExitCode) with the provided internal error and exit code.
func NewErrorWithExitCode(err error, exitCode int) *ErrorWithExitCode {
	return &ErrorWithExitCode{
		err:      err,
		exitCode: exitCode,
	}
}

// Error returns the error message string, implementing the `error` interface.
func (e *ErrorWithExitCode) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// sentinelExitCodes maps each sentinel error in the errs package to the exit code that should be reported when it
// reaches the top level unwrapped.
var sentinelExitCodes = map[error]int{
	errs.ErrInvalidTarget:      ExitCodeInvalidTarget,
	errs.ErrNoPlatformDetected: ExitCodeNoPlatformDetected,
	errs.ErrCompilerNotFound:   ExitCodeCompilerNotFound,
	errs.ErrCompilationFailed:  ExitCodeCompilationFailed,
	errs.ErrCompilerCrashed:    ExitCodeCompilerCrashed,
	errs.ErrUnresolvedLibrary:  ExitCodeUnresolvedLibrary,
	errs.ErrSourceNotVerified:  ExitCodeSourceNotVerified,
	errs.ErrNetwork:            ExitCodeNetworkError,
	errs.ErrContractAmbiguous:  ExitCodeContractAmbiguous,
	errs.ErrInvalidArchive:     ExitCodeInvalidArchive,
}

// GetInnerErrorAndExitCode checks the exit code that the application should exit with, if this error is bubbled
// to the top-level. This will be 0 for a nil error, an ErrorWithExitCode's own code if explicitly wrapped, the
// matching code for a recognized errs sentinel, or ExitCodeGeneralError otherwise.
func GetInnerErrorAndExitCode(err error) (error, int) {
	if err == nil {
		return nil, ExitCodeSuccess
	}

	var withCode *ErrorWithExitCode
	if errors.As(err, &withCode) {
		return withCode.err, withCode.exitCode
	}

	for sentinel, code := range sentinelExitCodes {
		if errors.Is(err, sentinel) {
			return err, code
		}
	}

	return err, ExitCodeGeneralError
}
