package platforms

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailofbits/ccompile/compilation/types"
)

// TestArchiveImportRehydratesProject verifies that an export archive written in the standard format's shape can
// be read back into a types.Project with no compiler invocation, preserving contract bytecode, ABI, and kind.
func TestArchiveImportRehydratesProject(t *testing.T) {
	archive := types.ArchiveExport{
		CompilationUnits: map[string]types.ArchiveUnit{
			"unit-1": {
				Compiler:   "0.8.19+commit.7dd6d404",
				Language:   "Solidity",
				WorkingDir: "/tmp/project",
				Type:       "solc",
				UnitID:     "unit-1",
				SourceUnits: map[string]types.ArchiveSource{
					"/tmp/project/contracts/Token.sol": {
						Contracts: map[string]types.ArchiveContract{
							"Token": {
								Abi:        []any{},
								Bin:        "0x6080604052",
								BinRuntime: "0x608060405260",
								SrcMaps:    types.ArchiveSrcMaps{Init: "0:10:0", Runtime: "0:5:0"},
								Kind:       "contract",
							},
						},
					},
				},
			},
		},
	}

	data, err := json.Marshal(archive)
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "project_export_archive.json")
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	config := NewArchiveCompilationConfig(archivePath)
	project, _, err := config.Compile()
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, "archive", project.Platform)
	require.Len(t, project.Units, 1)

	unit := project.Units[0]
	assert.Equal(t, "unit-1", unit.ID)
	assert.Equal(t, "Solidity", unit.Language)

	source, ok := unit.Sources["/tmp/project/contracts/Token.sol"]
	require.True(t, ok)

	contract, ok := source.Contracts["Token"]
	require.True(t, ok)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, contract.InitBytecode)
}

// TestArchiveImportMissingFile ensures a missing archive path surfaces an error rather than a silent empty project.
func TestArchiveImportMissingFile(t *testing.T) {
	config := NewArchiveCompilationConfig(filepath.Join(t.TempDir(), "does_not_exist.json"))
	project, _, err := config.Compile()
	assert.Error(t, err)
	assert.Nil(t, project)
}

// TestArchiveImportMalformedJSON ensures malformed archive contents surface a parse error.
func TestArchiveImportMalformedJSON(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "bad_export_archive.json")
	require.NoError(t, os.WriteFile(archivePath, []byte("not json"), 0644))

	config := NewArchiveCompilationConfig(archivePath)
	project, _, err := config.Compile()
	assert.Error(t, err)
	assert.Nil(t, project)
}
