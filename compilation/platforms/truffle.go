package platforms

import (
	"os/exec"
	"path/filepath"

	"github.com/trailofbits/ccompile/compilation/types"
)

// TruffleCompilationConfig describes the configuration used to compile a Truffle project by shelling out to the
// Truffle CLI and parsing its per-contract JSON artifacts afterward.
type TruffleCompilationConfig struct {
	Target         string `json:"target"`
	UseNpx         bool   `json:"useNpx"`
	Command        string `json:"command"`
	BuildDirectory string `json:"buildDirectory"`
}

// NewTruffleCompilationConfig returns the default configuration for compiling target with Truffle.
func NewTruffleCompilationConfig(target string) *TruffleCompilationConfig {
	return &TruffleCompilationConfig{
		Target:         target,
		UseNpx:         true,
		Command:        "",
		BuildDirectory: "",
	}
}

// Platform returns the platform type.
func (t *TruffleCompilationConfig) Platform() string {
	return "truffle"
}

// GetTarget returns the target for compilation.
func (t *TruffleCompilationConfig) GetTarget() string {
	return t.Target
}

// SetTarget sets the new target for compilation.
func (t *TruffleCompilationConfig) SetTarget(newTarget string) {
	t.Target = newTarget
}

// Compile invokes `truffle compile --all` against the target, then parses the resulting build/contracts/*.json
// artifacts into a single-unit types.Project.
func (t *TruffleCompilationConfig) Compile() (*types.Project, string, error) {
	baseCommandStr := "truffle"
	if t.Command != "" {
		baseCommandStr = t.Command
	}

	var cmd *exec.Cmd
	if t.UseNpx {
		cmd = exec.Command("npx", baseCommandStr, "compile", "--all")
	} else {
		cmd = exec.Command(baseCommandStr, "compile", "--all")
	}
	cmd.Dir = t.Target
	out, err := runBuildCommand(cmd, "truffle")
	if err != nil {
		return nil, "", err
	}

	buildDirectory := t.BuildDirectory
	if buildDirectory == "" {
		buildDirectory = filepath.Join(t.Target, "build", "contracts")
	}

	project := types.NewProject(t.Platform())
	unit, err := parseTruffleStyleArtifactDir(filepath.Join(buildDirectory, "*.json"), "Solidity", t.Target, project, readArtifactFile)
	if err != nil {
		return nil, "", err
	}

	project.AddUnit(unit)
	return project, string(out), nil
}
