package platforms

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/types"
)

// ArchiveCompilationConfig describes the configuration used to rehydrate a previously exported project archive
// (the `archive` export format's "<target>_export_archive.json" file) without re-invoking any compiler. This is
// how a prior compilation result can be handed back into the pipeline, e.g. to re-export it in a different format.
type ArchiveCompilationConfig struct {
	// Target is the path to the export archive JSON file.
	Target string `json:"target"`
}

// NewArchiveCompilationConfig returns the default configuration for importing an export archive at target.
func NewArchiveCompilationConfig(target string) *ArchiveCompilationConfig {
	return &ArchiveCompilationConfig{
		Target: target,
	}
}

// Platform returns the platform type.
func (a *ArchiveCompilationConfig) Platform() string {
	return "archive"
}

// GetTarget returns the target for compilation.
func (a *ArchiveCompilationConfig) GetTarget() string {
	return a.Target
}

// SetTarget sets the new target for compilation.
func (a *ArchiveCompilationConfig) SetTarget(newTarget string) {
	a.Target = newTarget
}

// Compile reads and decodes the export archive at Target, rehydrating it into a types.Project without invoking
// any compiler. This reuses the direct-compiler code path in spirit (it produces the same model shape), but its
// intent is to "rehydrate a prior result" rather than compile anything fresh.
func (a *ArchiveCompilationConfig) Compile() (*types.Project, string, error) {
	data, err := os.ReadFile(a.Target)
	if err != nil {
		return nil, "", fmt.Errorf("could not read export archive at '%s': %w: %w", a.Target, errs.ErrInvalidArchive, err)
	}

	var export types.ArchiveExport
	if err = json.Unmarshal(data, &export); err != nil {
		return nil, "", fmt.Errorf("could not parse export archive at '%s' as a valid archive: %w: %w", a.Target, errs.ErrInvalidArchive, err)
	}

	project := types.NewProject(a.Platform())

	for unitID, archivedUnit := range export.CompilationUnits {
		unit := types.NewCompilationUnit(archivedUnit.Language, archivedUnit.Compiler, "")
		unit.ID = unitID

		for sourcePath, archivedSource := range archivedUnit.SourceUnits {
			filename := project.RegisterFilename(types.NewFilename(sourcePath, archivedUnit.WorkingDir, sourcePath))
			sourceUnit := types.NewSourceUnit(filename, 0)

			if archivedSource.Ast != nil {
				var ast types.AST
				b, err := json.Marshal(archivedSource.Ast)
				if err != nil {
					return nil, "", fmt.Errorf("could not re-encode archived AST for '%s': %w: %w", sourcePath, errs.ErrInvalidArchive, err)
				}
				if err = json.Unmarshal(b, &ast); err != nil {
					return nil, "", fmt.Errorf("could not parse archived AST for '%s': %w: %w", sourcePath, errs.ErrInvalidArchive, err)
				}
				sourceUnit.Ast = &ast
				sourceUnit.ID = ast.GetSourceUnitID()
			}

			for contractName, archivedContract := range archivedSource.Contracts {
				contractAbi, err := types.ParseABIFromInterface(archivedContract.Abi)
				if err != nil {
					return nil, "", fmt.Errorf("unable to parse archived ABI for contract '%s': %w: %w", contractName, errs.ErrInvalidArchive, err)
				}

				initBytecode, err := hex.DecodeString(strings.TrimPrefix(archivedContract.Bin, "0x"))
				if err != nil {
					return nil, "", fmt.Errorf("unable to parse archived init bytecode for contract '%s': %w: %w", contractName, errs.ErrInvalidArchive, err)
				}
				runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(archivedContract.BinRuntime, "0x"))
				if err != nil {
					return nil, "", fmt.Errorf("unable to parse archived runtime bytecode for contract '%s': %w: %w", contractName, errs.ErrInvalidArchive, err)
				}

				sourceUnit.Contracts[contractName] = types.CompiledContract{
					Name:            contractName,
					ID:              archivedContract.ID,
					Abi:             *contractAbi,
					InitBytecode:    initBytecode,
					RuntimeBytecode: runtimeBytecode,
					SrcMapsInit:     archivedContract.SrcMaps.Init,
					SrcMapsRuntime:  archivedContract.SrcMaps.Runtime,
					Kind:            types.ContractKindFromString(archivedContract.Kind),
					NatSpec:         types.FoldNatSpec(archivedContract.UserDoc, archivedContract.DevDoc),
				}
			}

			unit.Add(sourcePath, sourceUnit)
		}

		project.AddUnit(unit)
	}

	return project, "", nil
}
