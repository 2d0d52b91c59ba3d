package platforms

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailofbits/ccompile/utils/testutils"
)

// TestSolcVersion ensures that a version of solc could be obtained and is installed on the system.
func TestSolcVersion(t *testing.T) {
	_, err := GetSystemSolcVersion()
	assert.NoError(t, err)
}

// TestSimpleSolcCompilationAbsolutePath tests that a single contract should be able to be compiled with an
// absolute target path in our platform config.
func TestSimpleSolcCompilationAbsolutePath(t *testing.T) {
	contractDirectory := testutils.CopyToTestDirectory(t, "testdata/solc/basic/")

	testutils.ExecuteInDirectory(t, contractDirectory, func() {
		solc := NewSolcCompilationConfig(filepath.Join(contractDirectory, "DerivedContract.sol"))

		project, _, err := solc.Compile()
		assert.NoError(t, err)
		assert.NotNil(t, project)
		assert.True(t, len(project.Units) > 0)
	})
}

// TestSimpleSolcCompilationRelativePath tests that a single contract should be able to be compiled with a
// relative target path in our platform config.
func TestSimpleSolcCompilationRelativePath(t *testing.T) {
	contractDirectory := testutils.CopyToTestDirectory(t, "testdata/solc/basic/")

	testutils.ExecuteInDirectory(t, contractDirectory, func() {
		solc := NewSolcCompilationConfig("DerivedContract.sol")

		project, _, err := solc.Compile()
		assert.NoError(t, err)
		assert.NotNil(t, project)
		assert.True(t, len(project.Units) > 0)
	})
}

// TestFailedSolcCompilation tests that a single contract of invalid form should fail compilation.
func TestFailedSolcCompilation(t *testing.T) {
	contractPath := testutils.CopyToTestDirectory(t, "testdata/solc/bad/FailedCompilationContract.sol")

	testutils.ExecuteInDirectory(t, contractPath, func() {
		solc := NewSolcCompilationConfig(contractPath)

		project, _, err := solc.Compile()
		assert.Error(t, err)
		assert.Nil(t, project)
	})
}
