package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailofbits/ccompile/utils/testutils"
)

// TestTruffleCompilationAbsolutePath tests compilation of a truffle project with an absolute project path.
func TestTruffleCompilationAbsolutePath(t *testing.T) {
	truffleDirectory := testutils.CopyToTestDirectory(t, "testdata/truffle/basic_project/")

	testutils.ExecuteInDirectory(t, truffleDirectory, func() {
		truffleConfig := NewTruffleCompilationConfig(truffleDirectory)

		project, _, err := truffleConfig.Compile()
		assert.NoError(t, err)
		assert.NotNil(t, project)
		assert.True(t, len(project.Units) > 0)
	})
}
