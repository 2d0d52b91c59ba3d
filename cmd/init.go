package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailofbits/ccompile/compilation"
	"github.com/trailofbits/ccompile/configs"
)

// initCmd represents the command provider for init.
var initCmd = &cobra.Command{
	Use:           "init [platform]",
	Short:         "Initializes a project configuration",
	Long:          "Initializes a project configuration file describing how to compile and export a target",
	Args:          cmdValidateInitArgs,
	RunE:          cmdRunInit,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	addInitFlags()
	rootCmd.AddCommand(initCmd)
}

// cmdValidateInitArgs validates that at most one platform argument was given, and that it names a supported
// compilation platform.
func cmdValidateInitArgs(cmd *cobra.Command, args []string) error {
	supportedPlatforms := compilation.GetSupportedCompilationPlatforms()

	if err := cobra.RangeArgs(0, 1)(cmd, args); err != nil {
		return fmt.Errorf("init accepts at most 1 platform argument (options: %s); default platform is %s",
			strings.Join(supportedPlatforms, ", "), DefaultCompilationPlatform)
	}

	if len(args) == 1 && !compilation.IsSupportedCompilationPlatform(args[0]) {
		return fmt.Errorf("init was provided invalid platform argument '%s' (options: %s)", args[0], strings.Join(supportedPlatforms, ", "))
	}

	return nil
}

// cmdRunInit executes the init CLI command and writes a project configuration file to disk.
func cmdRunInit(cmd *cobra.Command, args []string) error {
	outputFlagUsed := cmd.Flags().Changed("out")
	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	if !outputFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return err
		}
		outputPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	platform := DefaultCompilationPlatform
	if len(args) == 1 {
		platform = args[0]
	}

	projectConfig, err := configs.GetDefaultProjectConfig(platform)
	if err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if err := updateProjectConfigWithInitFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if err := projectConfig.WriteToFile(outputPath); err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if absoluteOutputPath, err := filepath.Abs(outputPath); err == nil {
		outputPath = absoluteOutputPath
	}
	cmdLogger.Info(fmt.Sprintf("project configuration written to: %s", outputPath))

	return nil
}
