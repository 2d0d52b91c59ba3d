package main

import (
	"os"

	"github.com/trailofbits/ccompile/cmd"
	"github.com/trailofbits/ccompile/cmd/exitcodes"
)

func main() {
	err := cmd.Execute()

	innerErr, exitCode := exitcodes.GetInnerErrorAndExitCode(err)
	if innerErr != nil {
		os.Stderr.WriteString(innerErr.Error() + "\n")
	}
	os.Exit(exitCode)
}
