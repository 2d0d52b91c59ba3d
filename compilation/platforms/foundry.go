package platforms

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/trailofbits/ccompile/compilation/types"
)

// FoundryCompilationConfig describes the configuration used to compile a Foundry project by shelling out to
// `forge build` and parsing its per-contract JSON artifacts afterward. Foundry is tried before every other
// framework adapter since its project marker (foundry.toml) is unambiguous and its artifact format is the
// richest of the bunch (full compiler metadata embedded per contract).
type FoundryCompilationConfig struct {
	// Target is the root of the Foundry project (the directory containing foundry.toml).
	Target string `json:"target"`

	// Command overrides the `forge` binary invoked.
	Command string `json:"command,omitempty"`

	// BuildDirectory overrides the artifact output directory. Defaults to "<Target>/out".
	BuildDirectory string `json:"buildDirectory,omitempty"`

	// RemoveMetadata strips the CBOR metadata trailer from every contract's stored bytecode after compilation.
	RemoveMetadata bool `json:"removeMetadata,omitempty"`
}

// NewFoundryCompilationConfig returns the default configuration for compiling target with Foundry.
func NewFoundryCompilationConfig(target string) *FoundryCompilationConfig {
	return &FoundryCompilationConfig{
		Target: target,
	}
}

// Platform returns the platform type.
func (f *FoundryCompilationConfig) Platform() string {
	return "foundry"
}

// GetTarget returns the target for compilation.
func (f *FoundryCompilationConfig) GetTarget() string {
	return f.Target
}

// SetTarget sets the new target for compilation.
func (f *FoundryCompilationConfig) SetTarget(newTarget string) {
	f.Target = newTarget
}

// foundryBytecodeObject mirrors the "bytecode"/"deployedBytecode" section of a Foundry artifact.
type foundryBytecodeObject struct {
	Object         string                                    `json:"object"`
	SourceMap      string                                     `json:"sourceMap"`
	LinkReferences map[string]map[string][]foundryLinkOffset `json:"linkReferences"`
}

// foundryLinkOffset mirrors one placeholder location within a Foundry bytecode object.
type foundryLinkOffset struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// foundryArtifact mirrors the JSON shape `forge build` writes to out/<Contract>.sol/<Contract>.json.
type foundryArtifact struct {
	Abi              any                   `json:"abi"`
	Bytecode         foundryBytecodeObject `json:"bytecode"`
	DeployedBytecode foundryBytecodeObject `json:"deployedBytecode"`
	Ast              any                   `json:"ast"`
	ID               int                   `json:"id"`
	Metadata         struct {
		Compiler struct {
			Version string `json:"version"`
		} `json:"compiler"`
		Language string `json:"language"`
		Output   struct {
			UserDoc any `json:"userdoc"`
			DevDoc  any `json:"devdoc"`
		} `json:"output"`
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	} `json:"metadata"`
}

// Compile invokes `forge build`, then parses the resulting out/<Contract>.sol/<Contract>.json artifacts into a
// single-unit types.Project.
func (f *FoundryCompilationConfig) Compile() (*types.Project, string, error) {
	baseCommandStr := "forge"
	if f.Command != "" {
		baseCommandStr = f.Command
	}

	cmd := exec.Command(baseCommandStr, "build")
	cmd.Dir = f.Target
	out, err := runBuildCommand(cmd, baseCommandStr)
	if err != nil {
		return nil, "", err
	}

	buildDirectory := f.BuildDirectory
	if buildDirectory == "" {
		buildDirectory = filepath.Join(f.Target, "out")
	}

	matches, err := filepath.Glob(filepath.Join(buildDirectory, "*.sol", "*.json"))
	if err != nil {
		return nil, "", err
	}

	project := types.NewProject(f.Platform())
	unit := types.NewCompilationUnit("Solidity", "", f.Target)

	for _, match := range matches {
		b, err := os.ReadFile(match)
		if err != nil {
			return nil, "", err
		}

		var artifact foundryArtifact
		if err = json.Unmarshal(b, &artifact); err != nil {
			return nil, "", fmt.Errorf("could not parse Foundry artifact at '%s': %w", match, err)
		}

		sourcePath, contractName := compilationTargetFromArtifact(artifact.Metadata.Settings.CompilationTarget, match)
		if sourcePath == "" {
			continue
		}

		if artifact.Metadata.Compiler.Version != "" && unit.CompilerVersion == "" {
			unit.CompilerVersion = artifact.Metadata.Compiler.Version
		}

		sourceUnit, ok := unit.Sources[sourcePath]
		if !ok {
			filename := project.RegisterFilename(types.NewFilename(sourcePath, f.Target, sourcePath))
			sourceUnit = types.NewSourceUnit(filename, 0)
			unit.Add(sourcePath, sourceUnit)
		}

		contractAbi, err := types.ParseABIFromInterface(artifact.Abi)
		if err != nil {
			continue
		}

		initBytecode, err := hex.DecodeString(strings.TrimPrefix(artifact.Bytecode.Object, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse init bytecode for contract '%s': %w", contractName, err)
		}
		runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(artifact.DeployedBytecode.Object, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse runtime bytecode for contract '%s': %w", contractName, err)
		}

		if f.RemoveMetadata {
			initBytecode = types.RemoveContractMetadata(initBytecode)
			runtimeBytecode = types.RemoveContractMetadata(runtimeBytecode)
		}

		compiled := types.CompiledContract{
			Name:            contractName,
			ID:              artifact.ID,
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     artifact.Bytecode.SourceMap,
			SrcMapsRuntime:  artifact.DeployedBytecode.SourceMap,
			Kind:            types.ContractKindContract,
			NatSpec:         types.FoldNatSpec(artifact.Metadata.Output.UserDoc, artifact.Metadata.Output.DevDoc),
		}

		placeholders := make(map[string]string)
		for libPath, refsByLib := range artifact.Bytecode.LinkReferences {
			for libName := range refsByLib {
				placeholders[types.GenerateLibraryPlaceholder(libPath+":"+libName)] = libName
			}
		}
		if len(placeholders) > 0 {
			compiled.LibraryPlaceholders = placeholders
		}

		sourceUnit.Contracts[contractName] = compiled
	}

	resolveLibraryPlaceholders(unit)
	project.AddUnit(unit)
	return project, out, nil
}

// compilationTargetFromArtifact extracts the source path and contract name a Foundry artifact was compiled from.
// Foundry records this as a single-entry "path": "name" map in its metadata; fall back to deriving both from the
// artifact's own file path when that metadata is absent (older Foundry artifact versions).
func compilationTargetFromArtifact(target map[string]string, artifactPath string) (string, string) {
	for path, name := range target {
		return path, name
	}

	base := filepath.Base(artifactPath)
	name := strings.TrimSuffix(base, ".json")
	return "", name
}
