package platforms

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/types"
)

// DappCompilationConfig describes the configuration used to compile a (legacy) Dapp project by shelling out to the
// `dapp` CLI, which wraps solc and emits solc's combined-json shape on success.
type DappCompilationConfig struct {
	Target         string `json:"target"`
	BuildDirectory string `json:"buildDirectory,omitempty"`
}

// NewDappCompilationConfig returns the default configuration for compiling target with Dapp.
func NewDappCompilationConfig(target string) *DappCompilationConfig {
	return &DappCompilationConfig{
		Target:         target,
		BuildDirectory: "",
	}
}

// Platform returns the platform type.
func (d *DappCompilationConfig) Platform() string {
	return "dapp"
}

// GetTarget returns the target for compilation.
func (d *DappCompilationConfig) GetTarget() string {
	return d.Target
}

// SetTarget sets the new target for compilation.
func (d *DappCompilationConfig) SetTarget(newTarget string) {
	d.Target = newTarget
}

// Compile invokes `dapp build`, then parses its solc combined-json-shaped output into a single-unit types.Project.
func (d *DappCompilationConfig) Compile() (*types.Project, string, error) {
	v, err := GetSystemSolcVersion()
	if err != nil {
		return nil, "", err
	}

	cmd := exec.Command("dapp", "build")
	cmd.Dir = d.Target
	out, err := runBuildCommand(cmd, "dapp")
	if err != nil {
		return nil, "", err
	}

	var results map[string]any
	if err = json.Unmarshal([]byte(out), &results); err != nil {
		return nil, "", fmt.Errorf("%w: could not parse dapp output as JSON: %w", errs.ErrCompilerCrashed, err)
	}

	project := types.NewProject(d.Platform())
	unit := types.NewCompilationUnit("Solidity", v.String(), d.Target)

	if sources, ok := results["sources"]; ok {
		if sourcesMap, ok := sources.(map[string]any); ok {
			for sourcePath := range sourcesMap {
				filename := project.RegisterFilename(types.NewFilename(sourcePath, d.Target, sourcePath))
				unit.Add(sourcePath, types.NewSourceUnit(filename, 0))
			}
		}
	}

	contracts, err := compiler.ParseCombinedJSON([]byte(out), "solc", v.String(), v.String(), "")
	if err != nil {
		return nil, "", err
	}

	for name, contract := range contracts {
		nameSplit := strings.Split(name, ":")
		sourcePath := strings.Join(nameSplit[0:len(nameSplit)-1], ":")
		contractName := nameSplit[len(nameSplit)-1]

		sourceUnit, ok := unit.Sources[sourcePath]
		if !ok {
			filename := project.RegisterFilename(types.NewFilename(sourcePath, d.Target, sourcePath))
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

		compiled := types.CompiledContract{
			Name:            contractName,
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     srcMap,
			SrcMapsRuntime:  contract.Info.SrcMapRuntime,
			Kind:            types.ContractKindContract,
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
	return project, out, nil
}
