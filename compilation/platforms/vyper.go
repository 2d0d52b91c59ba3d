package platforms

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/trailofbits/ccompile/compilation/driver"
	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/types"
)

// VyperCompilationConfig describes the configuration used to compile a single Vyper file directly with `vyper`,
// bypassing any build-framework integration. Alongside SolcCompilationConfig, this is one of the two fallback
// platforms tried when no project structure is detected at a target and the target's extension indicates Vyper.
type VyperCompilationConfig struct {
	// Target is the Vyper source file to compile.
	Target string `json:"target"`

	// VyperPath overrides the `vyper` binary resolved from PATH.
	VyperPath string `json:"vyperPath,omitempty"`

	// VyperArgs holds additional arguments to forward to `vyper` verbatim.
	VyperArgs []string `json:"vyperArgs,omitempty"`

	// RemoveMetadata strips the CBOR metadata trailer from every contract's stored bytecode after compilation.
	RemoveMetadata bool `json:"removeMetadata,omitempty"`
}

// NewVyperCompilationConfig returns the default configuration for compiling target directly with vyper.
func NewVyperCompilationConfig(target string) *VyperCompilationConfig {
	return &VyperCompilationConfig{
		Target: target,
	}
}

// Platform returns the platform type.
func (v *VyperCompilationConfig) Platform() string {
	return "vyper"
}

// GetTarget returns the target for compilation.
func (v *VyperCompilationConfig) GetTarget() string {
	return v.Target
}

// SetTarget sets the new target for compilation.
func (v *VyperCompilationConfig) SetTarget(newTarget string) {
	v.Target = newTarget
}

var vyperVersionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GetVyperVersion invokes vyperPath with `--version` and parses the reported compiler version string.
func GetVyperVersion(vyperPath string) (string, error) {
	out, err := exec.Command(vyperPath, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("error while executing vyper:\nOUTPUT:\n%s\nERROR: %s\n", string(out), err.Error())
	}

	versionStr := vyperVersionRegex.FindString(string(out))
	if versionStr == "" {
		return "", fmt.Errorf("could not parse vyper version using 'vyper --version'")
	}
	return versionStr, nil
}

// vyperCombinedJSONEntry mirrors the per-contract shape `vyper -f combined_json` emits.
type vyperCombinedJSONEntry struct {
	Abi              any    `json:"abi"`
	Bytecode         string `json:"bytecode"`
	BytecodeRuntime  string `json:"bytecode_runtime"`
	SourceMap        any    `json:"source_map"`
	UserDoc          any    `json:"userdoc"`
	DevDoc           any    `json:"devdoc"`
	MethodIdentifier any    `json:"method_identifiers"`
}

// Compile invokes `vyper -f combined_json` against the target and parses its per-contract output into a
// single-unit types.Project.
func (v *VyperCompilationConfig) Compile() (*types.Project, string, error) {
	vyperPath, err := driver.LocateBinary("vyper", v.VyperPath)
	if err != nil {
		return nil, "", err
	}

	version, err := GetVyperVersion(vyperPath)
	if err != nil {
		return nil, "", err
	}

	args := append([]string{"-f", "combined_json"}, v.VyperArgs...)
	args = append(args, v.Target)

	cmd := exec.Command(vyperPath, args...)
	out, err := runBuildCommand(cmd, "vyper")
	if err != nil {
		return nil, "", err
	}

	var results map[string]json.RawMessage
	if err = json.Unmarshal([]byte(out), &results); err != nil {
		return nil, "", fmt.Errorf("%w: could not parse vyper output as JSON: %w", errs.ErrCompilerCrashed, err)
	}
	// vyper's combined_json also carries a top-level "version" key alongside one entry per contract path; skip it.
	delete(results, "version")

	project := types.NewProject(v.Platform())
	unit := types.NewCompilationUnit("Vyper", version, v.Target)

	// vyper runs in this process's own working directory since no cmd.Dir override is set above.
	workingDir, _ := os.Getwd()

	for sourcePath, raw := range results {
		var entry vyperCombinedJSONEntry
		if err = json.Unmarshal(raw, &entry); err != nil {
			return nil, "", fmt.Errorf("could not parse vyper output for '%s': %w", sourcePath, err)
		}

		contractAbi, err := types.ParseABIFromInterface(entry.Abi)
		if err != nil {
			continue
		}

		initBytecode, err := hex.DecodeString(strings.TrimPrefix(entry.Bytecode, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse init bytecode for '%s': %w", sourcePath, err)
		}
		runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(entry.BytecodeRuntime, "0x"))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse runtime bytecode for '%s': %w", sourcePath, err)
		}

		if v.RemoveMetadata {
			initBytecode = types.RemoveContractMetadata(initBytecode)
			runtimeBytecode = types.RemoveContractMetadata(runtimeBytecode)
		}

		srcMap, _ := json.Marshal(entry.SourceMap)

		contractName := contractNameFromPath(sourcePath)

		filename := project.RegisterFilename(types.NewFilename(sourcePath, workingDir, sourcePath))
		sourceUnit := types.NewSourceUnit(filename, 0)
		sourceUnit.Contracts[contractName] = types.CompiledContract{
			Name:            contractName,
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     string(srcMap),
			Kind:            types.ContractKindContract,
			NatSpec:         types.FoldNatSpec(entry.UserDoc, entry.DevDoc),
		}
		unit.Add(sourcePath, sourceUnit)
	}

	project.AddUnit(unit)
	return project, "", nil
}

// contractNameFromPath derives a contract name from a Vyper source path the way Vyper itself does: the base file
// name without its ".vy" extension.
func contractNameFromPath(sourcePath string) string {
	base := sourcePath
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".vy")
}
