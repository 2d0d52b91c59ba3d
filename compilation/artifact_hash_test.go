package compilation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trailofbits/ccompile/compilation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeArtifactHash_EmptyProject(t *testing.T) {
	t.Parallel()

	hash := ComputeArtifactHash(types.NewProject("solc"))
	assert.NotEmpty(t, hash, "hash should not be empty even for an empty project")
}

func TestComputeArtifactHash_Deterministic(t *testing.T) {
	t.Parallel()

	project := testProject([]byte{0x60, 0x80, 0x60, 0x40}, []byte{0x60, 0x80, 0x60, 0x40, 0x52})

	hash1 := ComputeArtifactHash(project)
	hash2 := ComputeArtifactHash(project)

	assert.Equal(t, hash1, hash2, "hash should be deterministic")
}

func TestComputeArtifactHash_DifferentBytecode(t *testing.T) {
	t.Parallel()

	project1 := testProject([]byte{0x60, 0x80, 0x60, 0x40}, []byte{0x60, 0x80, 0x60, 0x40, 0x52})
	project2 := testProject([]byte{0x60, 0x80, 0x60, 0x41}, []byte{0x60, 0x80, 0x60, 0x40, 0x53})

	hash1 := ComputeArtifactHash(project1)
	hash2 := ComputeArtifactHash(project2)

	assert.NotEqual(t, hash1, hash2, "different bytecode should produce different hash")
}

func TestComputeArtifactHash_OrderIndependent(t *testing.T) {
	t.Parallel()

	project1 := types.NewProject("solc")
	unit1 := types.NewCompilationUnit("Solidity", "0.8.19", "")
	source1 := types.NewSourceUnit(types.NewFilename("/tmp/Contract.sol", "", "Contract.sol"), 0)
	source1.Contracts["Alpha"] = types.CompiledContract{InitBytecode: []byte{0x01, 0x02}, RuntimeBytecode: []byte{0x03, 0x04}}
	source1.Contracts["Beta"] = types.CompiledContract{InitBytecode: []byte{0x05, 0x06}, RuntimeBytecode: []byte{0x07, 0x08}}
	unit1.Add("Contract.sol", source1)
	project1.AddUnit(unit1)

	project2 := types.NewProject("solc")
	unit2 := types.NewCompilationUnit("Solidity", "0.8.19", "")
	source2 := types.NewSourceUnit(types.NewFilename("/tmp/Contract.sol", "", "Contract.sol"), 0)
	source2.Contracts["Beta"] = types.CompiledContract{InitBytecode: []byte{0x05, 0x06}, RuntimeBytecode: []byte{0x07, 0x08}}
	source2.Contracts["Alpha"] = types.CompiledContract{InitBytecode: []byte{0x01, 0x02}, RuntimeBytecode: []byte{0x03, 0x04}}
	unit2.Add("Contract.sol", source2)
	project2.AddUnit(unit2)

	hash1 := ComputeArtifactHash(project1)
	hash2 := ComputeArtifactHash(project2)

	assert.Equal(t, hash1, hash2, "hash should be independent of contract insertion order")
}

func TestLoadArtifactHashCache_NonExistent(t *testing.T) {
	t.Parallel()

	cache := LoadArtifactHashCache("/nonexistent/path")
	assert.Nil(t, cache, "should return nil for non-existent cache")
}

func TestSaveAndLoadArtifactHashCache(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	originalCache := &ArtifactHashCache{
		Hash:      "abc123def456",
		Timestamp: time.Now().Truncate(time.Second),
	}

	err := SaveArtifactHashCache(tempDir, originalCache)
	require.NoError(t, err, "should save cache without error")

	loadedCache := LoadArtifactHashCache(tempDir)
	require.NotNil(t, loadedCache, "should load cache successfully")

	assert.Equal(t, originalCache.Hash, loadedCache.Hash, "hash should match")
	assert.WithinDuration(t, originalCache.Timestamp, loadedCache.Timestamp, time.Second, "timestamp should match")
}

func TestSaveArtifactHashCache_CreatesDirectory(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	nestedDir := filepath.Join(tempDir, "nested", "dir")

	cache := &ArtifactHashCache{
		Hash:      "test123",
		Timestamp: time.Now(),
	}

	err := SaveArtifactHashCache(nestedDir, cache)
	require.NoError(t, err, "should create nested directories")

	_, err = os.Stat(filepath.Join(nestedDir, ArtifactHashCacheFileName))
	assert.NoError(t, err, "cache file should exist")
}

func TestLoadArtifactHashCache_InvalidJSON(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cachePath := filepath.Join(tempDir, ArtifactHashCacheFileName)

	err := os.WriteFile(cachePath, []byte("invalid json"), 0644)
	require.NoError(t, err)

	cache := LoadArtifactHashCache(tempDir)
	assert.Nil(t, cache, "should return nil for invalid JSON")
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration time.Duration
		expected string
	}{
		{30 * time.Second, "30 seconds"},
		{1 * time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{1 * time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
		{24 * time.Hour, "1 day"},
		{72 * time.Hour, "3 days"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDuration(tt.duration)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func testProject(initBytecode, runtimeBytecode []byte) *types.Project {
	project := types.NewProject("solc")
	unit := types.NewCompilationUnit("Solidity", "0.8.19", "")
	source := types.NewSourceUnit(types.NewFilename("/tmp/TestContract.sol", "", "TestContract.sol"), 0)
	source.Contracts["TestContract"] = types.CompiledContract{InitBytecode: initBytecode, RuntimeBytecode: runtimeBytecode}
	unit.Add("TestContract.sol", source)
	project.AddUnit(unit)
	return project
}
