package platforms

import "github.com/trailofbits/ccompile/compilation/types"

// PlatformConfig describes the interface all compilation platform configs must implement. Each platform adapter
// (solc, Foundry, Hardhat, Truffle, ...) wraps a target-specific configuration and knows how to invoke its
// underlying tooling and assemble the result into a types.Project.
type PlatformConfig interface {
	// Compile invokes the platform's build tooling against the configured target and parses its output into a
	// types.Project. It also returns the raw combined stdout/stderr of the underlying command, useful for
	// diagnostics when compilation fails.
	Compile() (*types.Project, string, error)

	// Platform returns the unique identifier of this platform, e.g. "solc", "foundry", "hardhat".
	Platform() string

	// GetTarget returns the path this platform config is configured to compile.
	GetTarget() string

	// SetTarget updates the path this platform config is configured to compile.
	SetTarget(string)
}
