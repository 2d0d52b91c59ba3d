package platforms

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/types"
)

// runBuildCommand executes a build-framework CLI invocation (truffle compile, hardhat compile, brownie compile,
// npm run build, ...) and classifies the failure: a missing binary becomes errs.ErrCompilerNotFound, anything else
// becomes errs.ErrCompilationFailed, each wrapping the combined stdout/stderr for diagnostics.
func runBuildCommand(cmd *exec.Cmd, toolName string) (string, error) {
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return string(out), fmt.Errorf("%w: %s binary not found", errs.ErrCompilerNotFound, toolName)
		}
		return string(out), fmt.Errorf("%w: error while executing %s:\nOUTPUT:\n%s\nERROR: %s\n", errs.ErrCompilationFailed, toolName, string(out), err.Error())
	}
	return string(out), nil
}

// truffleStyleArtifact describes the JSON shape emitted by Truffle and the frameworks that copy its artifact
// format (Brownie, Waffle, Hardhat, and legacy Embark/Etherlime/Buidler tooling): one JSON file per contract, found by
// globbing a build-output directory.
type truffleStyleArtifact struct {
	ContractName      string `json:"contractName"`
	Abi               any    `json:"abi"`
	Bytecode          string `json:"bytecode"`
	DeployedBytecode  string `json:"deployedBytecode"`
	SourceMap         string `json:"sourceMap"`
	DeployedSourceMap string `json:"deployedSourceMap"`
	SourcePath        string `json:"sourcePath"`
	SourceName        string `json:"sourceName"`
	Ast               any    `json:"ast"`
	CompilerVersion   string `json:"compiler,omitempty"`
	UserDoc           any    `json:"userdoc,omitempty"`
	DevDoc            any    `json:"devdoc,omitempty"`
}

// parseTruffleStyleArtifactDir globs glob for truffle-shaped per-contract JSON artifacts and assembles them into a
// single CompilationUnit, registering every file identity it introduces in project's shared identity index (the
// same index every other adapter and a later monorepo merge consult) rather than a throwaway one of its own.
// language labels the resulting unit ("Solidity" unless the framework is Vyper-only). workingDir is both the
// project root every discovered Filename is resolved against and the seed for the unit's deterministic ID. glob
// supports doublestar "**" segments, since Hardhat nests each artifact under a directory mirroring its source
// file's own path (arbitrarily deep for a project with subdirectories under contracts/).
func parseTruffleStyleArtifactDir(glob string, language string, workingDir string, project *types.Project, readFile func(string) ([]byte, error)) (*types.CompilationUnit, error) {
	matches, err := doublestar.FilepathGlob(glob)
	if err != nil {
		return nil, err
	}

	unit := types.NewCompilationUnit(language, "", workingDir)

	for _, match := range matches {
		b, err := readFile(match)
		if err != nil {
			return nil, err
		}

		artifact, err := decodeTruffleStyleArtifact(b)
		if err != nil {
			return nil, fmt.Errorf("could not parse artifact at '%s': %w", match, err)
		}

		sourcePath := artifact.SourcePath
		if sourcePath == "" {
			sourcePath = artifact.SourceName
		}
		if sourcePath == "" {
			sourcePath = artifact.ContractName
		}

		sourceUnit, ok := unit.Sources[sourcePath]
		if !ok {
			filename := project.RegisterFilename(types.NewFilename(sourcePath, workingDir, sourcePath))
			sourceUnit = types.NewSourceUnit(filename, 0)
			unit.Add(sourcePath, sourceUnit)
		}

		contractAbi, err := types.ParseABIFromInterface(artifact.Abi)
		if err != nil {
			continue
		}

		initBytecode, err := hex.DecodeString(strings.TrimPrefix(artifact.Bytecode, "0x"))
		if err != nil {
			return nil, fmt.Errorf("unable to parse init bytecode for contract '%s': %w", artifact.ContractName, err)
		}
		runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(artifact.DeployedBytecode, "0x"))
		if err != nil {
			return nil, fmt.Errorf("unable to parse runtime bytecode for contract '%s': %w", artifact.ContractName, err)
		}

		compiled := types.CompiledContract{
			Name:            artifact.ContractName,
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     artifact.SourceMap,
			SrcMapsRuntime:  artifact.DeployedSourceMap,
			Kind:            types.ContractKindContract,
			NatSpec:         types.FoldNatSpec(artifact.UserDoc, artifact.DevDoc),
		}

		placeholders := types.ParseBytecodeForPlaceholders(artifact.Bytecode)
		if len(placeholders) > 0 {
			compiled.LibraryPlaceholders = make(map[string]string, len(placeholders))
			for token := range placeholders {
				compiled.LibraryPlaceholders[token] = ""
			}
		}

		if artifact.CompilerVersion != "" && unit.CompilerVersion == "" {
			unit.CompilerVersion = artifact.CompilerVersion
		}

		sourceUnit.Contracts[artifact.ContractName] = compiled
	}

	resolveLibraryPlaceholders(unit)
	return unit, nil
}

func decodeTruffleStyleArtifact(b []byte) (*truffleStyleArtifact, error) {
	var artifact truffleStyleArtifact
	if err := json.Unmarshal(b, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// readArtifactFile reads an artifact file from disk; factored out so tests can substitute a fake.
func readArtifactFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
