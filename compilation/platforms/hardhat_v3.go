package platforms

import "github.com/trailofbits/ccompile/compilation/types"

// HardhatV3CompilationConfig describes the configuration used to compile a Hardhat v3 project. Hardhat v3 is
// detected separately from v2 (its config file and package.json declare the v3 toolbox rather than the legacy
// hardhat-waffle/hardhat-ethers plugin set) and is tried first since it is a strict superset of v2's build
// behavior, but it shells out to the same `hardhat compile` task and reads the same artifact directory shape.
type HardhatV3CompilationConfig struct {
	Target         string `json:"target"`
	UseNpx         bool   `json:"useNpx"`
	Command        string `json:"command,omitempty"`
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewHardhatV3CompilationConfig returns the default configuration for compiling target with Hardhat v3.
func NewHardhatV3CompilationConfig(target string) *HardhatV3CompilationConfig {
	return &HardhatV3CompilationConfig{
		Target:  target,
		UseNpx:  true,
		Command: "",
	}
}

// Platform returns the platform type.
func (h *HardhatV3CompilationConfig) Platform() string {
	return "hardhat-v3"
}

// GetTarget returns the target for compilation.
func (h *HardhatV3CompilationConfig) GetTarget() string {
	return h.Target
}

// SetTarget sets the new target for compilation.
func (h *HardhatV3CompilationConfig) SetTarget(newTarget string) {
	h.Target = newTarget
}

// Compile invokes `hardhat compile` and parses the resulting artifacts, identically to Hardhat v2.
func (h *HardhatV3CompilationConfig) Compile() (*types.Project, string, error) {
	return compileHardhatStyle(h.Platform(), h.Command, h.UseNpx, h.Target, h.BuildDirectory)
}
