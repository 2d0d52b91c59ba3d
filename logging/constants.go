package logging

// These constants identify specialized formatting for various logs to console.
const (
	// COMPILATION_PROGRESS is the constant to identify that a compilation progress event needs special console formatting
	COMPILATION_PROGRESS = "compilationProgress"

	// COMPILATION_SUMMARY is the constant to identify that a compilation summary needs special console formatting
	COMPILATION_SUMMARY = "compilationSummary"
)

// These constants are used to identify the various services that may do some logging.
const (
	// COMPILATION_SERVICE is the constant used to identify the compilation package
	COMPILATION_SERVICE = "compilation"
	// PLATFORMS_SERVICE is the constant used to identify the platform adapters
	PLATFORMS_SERVICE = "platforms"
	// DRIVER_SERVICE is the constant used to identify the compiler driver
	DRIVER_SERVICE = "driver"
	// VERIFY_SERVICE is the constant used to identify the verification fetcher
	VERIFY_SERVICE = "verify"
	// EXPORT_SERVICE is the constant used to identify the export package
	EXPORT_SERVICE = "export"
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
)
