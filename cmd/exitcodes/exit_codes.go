// Package exitcodes maps the compilation package's sentinel error taxonomy to process exit codes.
package exitcodes

const (
	// ================================
	// Platform-universal exit codes
	// ================================

	// ExitCodeSuccess indicates no errors or failures had occurred.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates some type of general error occurred.
	ExitCodeGeneralError = 1

	// ================================
	// Application-specific exit codes
	// ================================
	// Note: Despite not being standardized, exit codes 2-5 are often used for common use cases, so we avoid them.

	// ExitCodeNoPlatformDetected indicates the target did not match any supported compilation platform.
	ExitCodeNoPlatformDetected = 10

	// ExitCodeCompilerNotFound indicates the underlying compiler binary could not be located.
	ExitCodeCompilerNotFound = 11

	// ExitCodeCompilationFailed indicates the underlying compiler ran but reported a failure.
	ExitCodeCompilationFailed = 12

	// ExitCodeCompilerCrashed indicates the underlying compiler produced output ccompile could not parse.
	ExitCodeCompilerCrashed = 13

	// ExitCodeUnresolvedLibrary indicates a contract still has unlinked library placeholders after compilation.
	ExitCodeUnresolvedLibrary = 14

	// ExitCodeSourceNotVerified indicates the verification fetcher found no verified source for a target address.
	ExitCodeSourceNotVerified = 15

	// ExitCodeNetworkError indicates the verification fetcher exhausted its retry budget against a remote service.
	ExitCodeNetworkError = 16

	// ExitCodeContractAmbiguous indicates a monorepo compile produced two incompatible definitions of the same
	// contract.
	ExitCodeContractAmbiguous = 17

	// ExitCodeInvalidArchive indicates a malformed export archive was supplied for re-import.
	ExitCodeInvalidArchive = 18

	// ExitCodeInvalidTarget indicates the supplied compilation target could not be resolved at all.
	ExitCodeInvalidTarget = 19
)
