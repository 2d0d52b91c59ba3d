package platforms

import (
	"os/exec"
	"path"

	"github.com/trailofbits/ccompile/compilation/types"
)

// WaffleCompilationConfig describes the configuration used to compile a project built with the (now legacy)
// Waffle toolchain by shelling out to its npm build script and parsing its per-contract JSON artifacts afterward.
type WaffleCompilationConfig struct {
	Target         string `json:"target"`
	UseNpx         bool   `json:"useNpx"`
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewWaffleCompilationConfig returns the default configuration for compiling target with Waffle.
func NewWaffleCompilationConfig(target string) *WaffleCompilationConfig {
	return &WaffleCompilationConfig{
		Target:         target,
		UseNpx:         true,
		BuildDirectory: "",
	}
}

// Platform returns the platform type.
func (w *WaffleCompilationConfig) Platform() string {
	return "waffle"
}

// GetTarget returns the target for compilation.
func (w *WaffleCompilationConfig) GetTarget() string {
	return w.Target
}

// SetTarget sets the new target for compilation.
func (w *WaffleCompilationConfig) SetTarget(newTarget string) {
	w.Target = newTarget
}

// Compile invokes `npm run build` against the target, then parses the resulting build/*.json artifacts into a
// single-unit types.Project.
func (w *WaffleCompilationConfig) Compile() (*types.Project, string, error) {
	cmd := exec.Command("npm", "run", "build")
	cmd.Dir = w.Target
	out, err := runBuildCommand(cmd, "npm")
	if err != nil {
		return nil, "", err
	}

	targetDirectory := w.Target
	buildDirectory := w.BuildDirectory
	if buildDirectory == "" {
		buildDirectory = path.Join(targetDirectory, "build")
	}

	project := types.NewProject(w.Platform())
	unit, err := parseTruffleStyleArtifactDir(path.Join(buildDirectory, "*.json"), "Solidity", w.Target, project, readArtifactFile)
	if err != nil {
		return nil, "", err
	}

	project.AddUnit(unit)
	return project, string(out), nil
}
