package platforms

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/trailofbits/ccompile/compilation/driver"
	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/types"
	"github.com/trailofbits/ccompile/utils"
)

// SolcCompilationConfig describes the configuration used to compile a single Solidity file or a pre-flattened
// target directly with `solc`, bypassing any build-framework integration. This is the fallback platform used when
// no Foundry/Hardhat/Truffle/Brownie/Dapp/Waffle project structure is detected at a target.
type SolcCompilationConfig struct {
	// Target is the Solidity source file to compile.
	Target string `json:"target"`

	// SolcPath overrides the `solc` binary resolved from PATH.
	SolcPath string `json:"solcPath,omitempty"`

	// SolcArgs holds additional arguments to forward to `solc` verbatim (e.g. "--optimize", "--optimize-runs=200").
	SolcArgs []string `json:"solcArgs,omitempty"`

	// Remaps holds import remapping strings in solc's "context:prefix=target" form.
	Remaps []string `json:"remaps,omitempty"`

	// DisableWarnings drops non-error diagnostics from the returned command output.
	DisableWarnings bool `json:"disableWarnings,omitempty"`

	// RemoveMetadata strips the CBOR metadata trailer from every contract's stored bytecode after compilation.
	RemoveMetadata bool `json:"removeMetadata,omitempty"`
}

// NewSolcCompilationConfig returns the default configuration for compiling target directly with solc.
func NewSolcCompilationConfig(target string) *SolcCompilationConfig {
	return &SolcCompilationConfig{
		Target: target,
	}
}

// Platform returns the platform type.
func (s *SolcCompilationConfig) Platform() string {
	return "solc"
}

// GetTarget returns the target for compilation.
func (s *SolcCompilationConfig) GetTarget() string {
	return s.Target
}

// SetTarget sets the new target for compilation.
func (s *SolcCompilationConfig) SetTarget(newTarget string) {
	s.Target = newTarget
}

// solcVersionRegex extracts a semver-compatible version string from `solc --version` output.
var solcVersionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GetSystemSolcVersion invokes the `solc` binary found on PATH with `--version` and parses the reported compiler
// version.
func GetSystemSolcVersion() (*semver.Version, error) {
	return GetSolcVersion("solc")
}

// GetSolcVersion invokes solcPath with `--version` and parses the reported compiler version.
func GetSolcVersion(solcPath string) (*semver.Version, error) {
	out, err := exec.Command(solcPath, "--version").CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: solc binary not found at '%s'", errs.ErrCompilerNotFound, solcPath)
		}
		return nil, fmt.Errorf("error while executing solc:\nOUTPUT:\n%s\nERROR: %s\n", string(out), err.Error())
	}

	versionStr := solcVersionRegex.FindString(string(out))
	if versionStr == "" {
		return nil, errors.New("could not parse solc version using 'solc --version'")
	}

	return semver.NewVersion(versionStr)
}

// SolcOutputOptions determines the --combined-json output selector to use for a given solc version, since older
// compiler releases don't recognize every selector and will error out if given one they don't understand.
func SolcOutputOptions(v *semver.Version) string {
	// useCompactFormat adds the compact-format output option for versions that support it:
	// 0.4.12-0.4.26, 0.5.0-0.5.17, 0.6.0-0.6.12, 0.7.0-0.7.6, 0.8.0-0.8.9
	useCompactFormat := (v.Major() == 0 && v.Minor() == 4 && v.Patch() >= 12 && v.Patch() <= 26) ||
		(v.Major() == 0 && v.Minor() == 5 && v.Patch() <= 17) ||
		(v.Major() == 0 && v.Minor() == 6 && v.Patch() <= 12) ||
		(v.Major() == 0 && v.Minor() == 7 && v.Patch() <= 6) ||
		(v.Major() == 0 && v.Minor() == 8 && v.Patch() <= 9)

	if (v.Major() == 0 && v.Minor() == 4 && v.Patch() <= 11) || (v.Major() == 0 && v.Minor() == 3 && v.Patch() <= 6) {
		return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc"
	} else if useCompactFormat {
		return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes,compact-format"
	}
	return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes"
}

// Compile invokes `solc --combined-json` against the target, parses the resulting sources (for ASTs and contract
// kinds) and contracts (for ABI/bytecode/source maps/NatSpec) into a single-unit types.Project.
func (s *SolcCompilationConfig) Compile() (*types.Project, string, error) {
	solcPath, err := driver.LocateBinary("solc", s.SolcPath)
	if err != nil {
		return nil, "", err
	}

	v, err := GetSolcVersion(solcPath)
	if err != nil {
		return nil, "", err
	}

	args := []string{s.Target, "--combined-json", SolcOutputOptions(v)}
	for _, remap := range s.Remaps {
		args = append(args, remap)
	}
	args = append(args, s.SolcArgs...)

	cmd := exec.Command(solcPath, args...)
	cmdStdout, cmdStderr, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd)
	if err != nil {
		return nil, "", fmt.Errorf("%w: solc reported diagnostics:\n%s\n\nCommand Output:\n%s\n", errs.ErrCompilationFailed, err.Error(), string(cmdCombined))
	}

	if s.DisableWarnings {
		cmdStderr = nil
	}

	var results map[string]any
	if err = json.Unmarshal(cmdStdout, &results); err != nil {
		return nil, "", fmt.Errorf("%w: could not parse solc output as JSON: %w", errs.ErrCompilerCrashed, err)
	}

	project := types.NewProject(s.Platform())
	unit := types.NewCompilationUnit("Solidity", v.String(), s.Target)

	// solc runs in this process's own working directory since no cmd.Dir override is set above.
	workingDir, _ := os.Getwd()
	resolveOpts := types.ResolveOptions{Remappings: s.Remaps}

	contractKinds := make(map[string]types.ContractKind)
	contractIDs := make(map[string]int)

	if sources, ok := results["sources"]; ok {
		sourcesMap, isMap := sources.(map[string]any)
		if !isMap {
			return nil, "", fmt.Errorf("could not parse solc's \"sources\" output, expected an object")
		}

		for sourcePath, source := range sourcesMap {
			sourceDict, sourceCorrectType := source.(map[string]any)
			if !sourceCorrectType {
				return nil, "", fmt.Errorf("could not parse compiled source artifact for '%s', expected an object", sourcePath)
			}

			origAST, hasAST := sourceDict["AST"]
			if !hasAST {
				return nil, "", fmt.Errorf("could not parse AST from sources, AST field could not be found for '%s'", sourcePath)
			}

			var ast types.AST
			b, err := json.Marshal(origAST)
			if err != nil {
				return nil, "", fmt.Errorf("could not encode AST from sources: %v", err)
			}
			if err = json.Unmarshal(b, &ast); err != nil {
				return nil, "", fmt.Errorf("could not parse AST from sources, error: %v", err)
			}

			for _, node := range ast.Nodes {
				if node.GetNodeType() == "ContractDefinition" {
					contractDefinition := node.(types.ContractDefinition)
					contractKinds[contractDefinition.CanonicalName] = contractDefinition.ContractKind
					contractIDs[contractDefinition.CanonicalName] = contractDefinition.ID
				}
			}

			filename := project.RegisterFilename(types.NewFilenameWithOptions(sourcePath, workingDir, sourcePath, resolveOpts))
			sourceUnit := types.NewSourceUnit(filename, ast.GetSourceUnitID())
			sourceUnit.Ast = &ast
			unit.Add(sourcePath, sourceUnit)
		}
	}

	contracts, err := compiler.ParseCombinedJSON(cmdStdout, "solc", v.String(), v.String(), "")
	if err != nil {
		return nil, "", err
	}

	for name, contract := range contracts {
		nameSplit := strings.Split(name, ":")
		sourcePath := strings.Join(nameSplit[0:len(nameSplit)-1], ":")
		contractName := nameSplit[len(nameSplit)-1]

		sourceUnit, ok := unit.Sources[sourcePath]
		if !ok {
			filename := project.RegisterFilename(types.NewFilenameWithOptions(sourcePath, workingDir, sourcePath, resolveOpts))
			sourceUnit = types.NewSourceUnit(filename, 0)
			unit.Add(sourcePath, sourceUnit)
		}

		contractAbi, err := types.ParseABIFromInterface(contract.Info.AbiDefinition)
		if err != nil {
			continue
		}

		initBytecode, err := hex.DecodeString(strings.TrimPrefix(contract.Code, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse init bytecode for contract '%s'\n", contractName)
		}
		runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(contract.RuntimeCode, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse runtime bytecode for contract '%s'\n", contractName)
		}

		srcMap, _ := contract.Info.SrcMap.(string)

		if s.RemoveMetadata {
			initBytecode = types.RemoveContractMetadata(initBytecode)
			runtimeBytecode = types.RemoveContractMetadata(runtimeBytecode)
		}

		compiled := types.CompiledContract{
			Name:            contractName,
			ID:              contractIDs[contractName],
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     srcMap,
			SrcMapsRuntime:  contract.Info.SrcMapRuntime,
			Kind:            contractKinds[contractName],
			NatSpec:         types.FoldNatSpec(contract.Info.UserDoc, contract.Info.DeveloperDoc),
		}

		placeholders := types.ParseBytecodeForPlaceholders(contract.Code)
		if len(placeholders) > 0 {
			compiled.LibraryPlaceholders = make(map[string]string, len(placeholders))
			for token := range placeholders {
				compiled.LibraryPlaceholders[token] = ""
			}
		}

		sourceUnit.Contracts[contractName] = compiled
	}

	resolveLibraryPlaceholders(unit)

	project.AddUnit(unit)
	return project, string(cmdStderr), nil
}

// resolveLibraryPlaceholders collects every contract's unresolved library placeholder tokens in a unit, resolves
// them all at once against the unit's available libraries (so a library referenced from several contracts only
// needs to be matched once), and writes the resolution back into each contract.
func resolveLibraryPlaceholders(unit *types.CompilationUnit) {
	merged := make(map[string]string)
	for _, source := range unit.Sources {
		for _, contract := range source.Contracts {
			for token, name := range contract.LibraryPlaceholders {
				merged[token] = name
			}
		}
	}
	if len(merged) == 0 {
		return
	}

	project := types.NewProject("")
	project.AddUnit(unit)
	types.MapPlaceholdersToLibraries(merged, types.GetAvailableLibraries(project))

	for _, source := range unit.Sources {
		for name, contract := range source.Contracts {
			if len(contract.LibraryPlaceholders) == 0 {
				continue
			}
			seen := make(map[string]bool, len(contract.LibraryPlaceholders))
			for token := range contract.LibraryPlaceholders {
				libName := merged[token]
				contract.LibraryPlaceholders[token] = libName
				if libName != "" && !seen[libName] {
					seen[libName] = true
					contract.Dependencies = append(contract.Dependencies, libName)
				}
			}
			source.Contracts[name] = contract
		}
	}
}
