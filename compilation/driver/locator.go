// Package driver resolves and invokes the underlying compiler binaries (solc, vyper) shared by the platform
// adapters: an explicit override always wins, otherwise the binary is resolved from PATH.
package driver

import (
	"fmt"
	"os/exec"

	"github.com/trailofbits/ccompile/compilation/errs"
)

// LocateBinary resolves the executable to invoke for name. If override is non-empty it is used verbatim (as either
// an absolute path or a bare name resolved via PATH); otherwise name itself is resolved via PATH.
func LocateBinary(name string, override string) (string, error) {
	candidate := name
	if override != "" {
		candidate = override
	}

	path, err := exec.LookPath(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: could not locate '%s' on PATH", errs.ErrCompilerNotFound, candidate)
	}

	return path, nil
}
