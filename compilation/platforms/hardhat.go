package platforms

import (
	"os/exec"
	"path"

	"github.com/trailofbits/ccompile/compilation/types"
)

// HardhatCompilationConfig describes the configuration used to compile a Hardhat (v2) project by shelling out to
// the Hardhat CLI and parsing its per-contract JSON artifacts afterward.
type HardhatCompilationConfig struct {
	Target         string `json:"target"`
	UseNpx         bool   `json:"useNpx"`
	Command        string `json:"command,omitempty"`
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewHardhatCompilationConfig returns the default configuration for compiling target with Hardhat.
func NewHardhatCompilationConfig(target string) *HardhatCompilationConfig {
	return &HardhatCompilationConfig{
		Target:         target,
		UseNpx:         true,
		Command:        "",
		BuildDirectory: "",
	}
}

// Platform returns the platform type.
func (h *HardhatCompilationConfig) Platform() string {
	return "hardhat"
}

// GetTarget returns the target for compilation.
func (h *HardhatCompilationConfig) GetTarget() string {
	return h.Target
}

// SetTarget sets the new target for compilation.
func (h *HardhatCompilationConfig) SetTarget(newTarget string) {
	h.Target = newTarget
}

// Compile invokes `hardhat compile`, then parses the resulting artifacts/contracts/**/*.json artifacts into a
// single-unit types.Project.
func (h *HardhatCompilationConfig) Compile() (*types.Project, string, error) {
	return compileHardhatStyle(h.Platform(), h.Command, h.UseNpx, h.Target, h.BuildDirectory)
}

// compileHardhatStyle drives the part of a Hardhat compile that is identical across the v2 and v3 CLI: invoke the
// `hardhat compile` task and parse the resulting artifact directory. The two major versions differ in project
// detection and toolbox dependencies, not in this artifact shape.
func compileHardhatStyle(platformID string, command string, useNpx bool, target string, buildDirectory string) (*types.Project, string, error) {
	baseCommandStr := "hardhat"
	if command != "" {
		baseCommandStr = command
	}

	var cmd *exec.Cmd
	if useNpx {
		cmd = exec.Command("npx", baseCommandStr, "compile")
	} else {
		cmd = exec.Command(baseCommandStr, "compile")
	}
	cmd.Dir = target
	out, err := runBuildCommand(cmd, "hardhat")
	if err != nil {
		return nil, "", err
	}

	targetDirectory := target
	if buildDirectory == "" {
		buildDirectory = path.Join(targetDirectory, "artifacts", "contracts")
	}

	project := types.NewProject(platformID)
	unit, err := parseTruffleStyleArtifactDir(path.Join(buildDirectory, "**", "*.sol", "*.json"), "Solidity", target, project, readArtifactFile)
	if err != nil {
		return nil, "", err
	}

	project.AddUnit(unit)
	return project, out, nil
}
