// Package errs holds the sentinel error taxonomy shared across the compilation pipeline: platform adapters, the
// orchestrator, the verification fetcher, and the exporters all wrap one of these rather than returning ad hoc
// errors, so callers can distinguish failure categories with errors.Is instead of matching message strings.
package errs

import "errors"

var (
	// ErrInvalidTarget indicates the caller gave a path that doesn't exist and isn't a recognizable contract address.
	ErrInvalidTarget = errors.New("invalid compilation target")

	// ErrNoPlatformDetected indicates no adapter matched the target and the solc/Vyper fallback also failed.
	ErrNoPlatformDetected = errors.New("no compilation platform detected for target")

	// ErrCompilerNotFound indicates the compiler binary locator could not resolve a usable compiler.
	ErrCompilerNotFound = errors.New("compiler binary not found")

	// ErrCompilationFailed indicates the compiler ran and reported diagnostics classified as errors.
	ErrCompilationFailed = errors.New("compilation failed")

	// ErrCompilerCrashed indicates the compiler exited in a way that could not be parsed as ordinary diagnostics.
	ErrCompilerCrashed = errors.New("compiler crashed")

	// ErrUnresolvedLibrary indicates library linking could not find an address for a bytecode placeholder.
	ErrUnresolvedLibrary = errors.New("unresolved library placeholder")

	// ErrSourceNotVerified indicates the verification fetcher received an empty or unverified response.
	ErrSourceNotVerified = errors.New("source not verified")

	// ErrNetwork indicates an HTTP failure from the verification fetcher that persisted after retries.
	ErrNetwork = errors.New("network error")

	// ErrContractAmbiguous indicates a monorepo merge saw two incompatible definitions of the same contract.
	ErrContractAmbiguous = errors.New("ambiguous contract definition")

	// ErrInvalidArchive indicates a malformed export archive was supplied for import.
	ErrInvalidArchive = errors.New("invalid export archive")
)
