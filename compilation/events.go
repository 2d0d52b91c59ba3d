package compilation

// PlatformDetectedEvent is emitted once the orchestrator has resolved which platform adapter will compile a root.
type PlatformDetectedEvent struct {
	// Root is the directory (or file) the platform was detected for.
	Root string

	// Platform is the resolved platform identifier.
	Platform string
}

// CompilationUnitStartedEvent is emitted immediately before a platform adapter's Compile method is invoked.
type CompilationUnitStartedEvent struct {
	// Root is the target being compiled.
	Root string

	// Platform is the platform identifier compiling it.
	Platform string
}

// CompilationUnitCompletedEvent is emitted after a platform adapter's Compile method returns successfully.
type CompilationUnitCompletedEvent struct {
	// Root is the target that was compiled.
	Root string

	// Platform is the platform identifier that compiled it.
	Platform string

	// UnitCount is the number of CompilationUnit values the adapter produced.
	UnitCount int
}

// LibraryLinkedEvent is emitted once per library placeholder token that was successfully resolved to a library
// name during post-processing.
type LibraryLinkedEvent struct {
	// Contract is the fully-qualified "<sourcePath>:<contractName>" of the contract whose bytecode was linked.
	Contract string

	// Library is the name of the library resolved for the placeholder.
	Library string
}
