package platforms

import (
	"os/exec"
	"path"

	"github.com/trailofbits/ccompile/compilation/types"
)

// BrownieCompilationConfig describes the configuration used to compile a Brownie (Vyper/Solidity) project by
// shelling out to the Brownie CLI and parsing its per-contract JSON artifacts afterward.
type BrownieCompilationConfig struct {
	Target         string `json:"target"`
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewBrownieCompilationConfig returns the default configuration for compiling target with Brownie.
func NewBrownieCompilationConfig(target string) *BrownieCompilationConfig {
	return &BrownieCompilationConfig{
		Target:         target,
		BuildDirectory: "",
	}
}

// Platform returns the platform type.
func (b *BrownieCompilationConfig) Platform() string {
	return "brownie"
}

// GetTarget returns the target for compilation.
func (b *BrownieCompilationConfig) GetTarget() string {
	return b.Target
}

// SetTarget sets the new target for compilation.
func (b *BrownieCompilationConfig) SetTarget(newTarget string) {
	b.Target = newTarget
}

// Compile invokes `brownie compile`, then parses the resulting build/contracts/*.json artifacts into a
// single-unit types.Project.
func (b *BrownieCompilationConfig) Compile() (*types.Project, string, error) {
	cmd := exec.Command("brownie", "compile")
	cmd.Dir = b.Target
	out, err := runBuildCommand(cmd, "brownie")
	if err != nil {
		return nil, "", err
	}

	targetDirectory := b.Target
	buildDirectory := b.BuildDirectory
	if buildDirectory == "" {
		buildDirectory = path.Join(targetDirectory, "build", "contracts")
	}

	project := types.NewProject(b.Platform())
	unit, err := parseTruffleStyleArtifactDir(path.Join(buildDirectory, "*.json"), "Solidity", b.Target, project, readArtifactFile)
	if err != nil {
		return nil, "", err
	}

	project.AddUnit(unit)
	return project, string(out), nil
}
