package platforms

import (
	"os/exec"
	"path/filepath"

	"github.com/trailofbits/ccompile/compilation/types"
)

// LegacyCompilationConfig describes the configuration used to compile a project built with one of the older,
// largely unmaintained JavaScript build tools that still show up in the wild: Embark, Etherlime, and Buidler
// (Hardhat's predecessor). All three emit the same Truffle-shaped artifact JSON and their detectors carry the
// lowest detection priority, below every actively maintained framework adapter; the direct solc/Vyper fallback is
// used only when no detector matches at all.
type LegacyCompilationConfig struct {
	// Target is the project root.
	Target string `json:"target"`

	// Tool names which legacy tool to invoke: "embark", "etherlime", or "buidler".
	Tool string `json:"tool"`

	// BuildDirectory overrides the artifact output directory.
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewLegacyCompilationConfig returns the default configuration for compiling target with the named legacy tool.
func NewLegacyCompilationConfig(target string, tool string) *LegacyCompilationConfig {
	return &LegacyCompilationConfig{
		Target: target,
		Tool:   tool,
	}
}

// Platform returns the platform type, e.g. "embark", "etherlime", "buidler".
func (l *LegacyCompilationConfig) Platform() string {
	if l.Tool == "" {
		return "embark"
	}
	return l.Tool
}

// GetTarget returns the target for compilation.
func (l *LegacyCompilationConfig) GetTarget() string {
	return l.Target
}

// SetTarget sets the new target for compilation.
func (l *LegacyCompilationConfig) SetTarget(newTarget string) {
	l.Target = newTarget
}

// legacyBuildCommands maps each supported legacy tool to the CLI invocation that builds its contracts.
var legacyBuildCommands = map[string][]string{
	"embark":    {"embark", "build", "--contracts-only"},
	"etherlime": {"etherlime", "compile"},
	"buidler":   {"npx", "buidler", "compile"},
}

// legacyBuildDirectories maps each supported legacy tool to its default artifact output directory, relative to
// the project root.
var legacyBuildDirectories = map[string][]string{
	"embark":    {".embark", "contracts"},
	"etherlime": {"build"},
	"buidler":   {"artifacts"},
}

// Compile shells out to the configured legacy tool's build command, then parses its Truffle-shaped per-contract
// JSON artifacts into a single-unit types.Project.
func (l *LegacyCompilationConfig) Compile() (*types.Project, string, error) {
	tool := l.Platform()

	args, ok := legacyBuildCommands[tool]
	if !ok {
		args = legacyBuildCommands["embark"]
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = l.Target
	out, err := runBuildCommand(cmd, tool)
	if err != nil {
		return nil, "", err
	}

	buildDirectory := l.BuildDirectory
	if buildDirectory == "" {
		parts := append([]string{l.Target}, legacyBuildDirectories[tool]...)
		buildDirectory = filepath.Join(parts...)
	}

	project := types.NewProject(tool)
	unit, err := parseTruffleStyleArtifactDir(filepath.Join(buildDirectory, "*.json"), "Solidity", l.Target, project, readArtifactFile)
	if err != nil {
		return nil, "", err
	}

	project.AddUnit(unit)
	return project, out, nil
}
