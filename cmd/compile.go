package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailofbits/ccompile/compilation"
	"github.com/trailofbits/ccompile/compilation/export"
	"github.com/trailofbits/ccompile/compilation/types"
	"github.com/trailofbits/ccompile/configs"
)

// compileCmd represents the command provider for compile.
var compileCmd = &cobra.Command{
	Use:           "compile [target]",
	Short:         "Compiles a smart contract project",
	Long:          "Compiles a target with the framework named by the project configuration (or one forced via flags) and optionally exports the result. The target's framework is not auto-detected.",
	Args:          cobra.MaximumNArgs(1),
	RunE:          cmdRunCompile,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	addCompileFlags(compileCmd)
	rootCmd.AddCommand(compileCmd)
}

// cmdRunCompile executes the compile CLI command: it loads (or defaults) a project configuration, applies any
// flag overrides, compiles the resolved target, and exports the result if export formats were configured.
func cmdRunCompile(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if err := updateProjectConfigWithCompileFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if len(args) == 1 {
		if err := projectConfig.Compilation.SetTarget(args[0]); err != nil {
			cmdLogger.Error(err.Error())
			return err
		}
	}

	orchestrator := compilation.NewOrchestrator(projectConfig.Export.Directory, projectConfig.EtherscanAPIKey)

	project, out, err := compileProject(cmd, orchestrator, projectConfig)
	if err != nil {
		if out != "" {
			cmdLogger.Error(out)
		}
		cmdLogger.Error(err.Error())
		return err
	}

	platformConfig, err := projectConfig.Compilation.GetPlatformConfig()
	if err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	cmdLogger.Info(fmt.Sprintf("compiled %d compilation unit(s) from '%s'", len(project.Units), platformConfig.GetTarget()))

	if len(projectConfig.Export.Formats) > 0 {
		opts := export.Options{
			Directory: projectConfig.Export.Directory,
			Target:    platformConfig.GetTarget(),
			ZipFile:   projectConfig.Export.ZipFile,
		}
		if err := export.Export(project, projectConfig.Export.Formats, opts); err != nil {
			cmdLogger.Error(err.Error())
			return err
		}
		cmdLogger.Info(fmt.Sprintf("exported [%s] to '%s'", strings.Join(projectConfig.Export.Formats, ", "), projectConfig.Export.Directory))
	}

	return nil
}

// compileProject dispatches to the orchestrator's force-framework path when --compile-force-framework was given
// (which builds a fresh default platform config for that framework) or its config-driven path otherwise (which
// preserves every platform-specific setting projectConfig.Compilation already carries).
func compileProject(cmd *cobra.Command, orchestrator *compilation.Orchestrator, projectConfig *configs.ProjectConfig) (*types.Project, string, error) {
	if cmd.Flags().Changed("compile-force-framework") {
		forceFramework, err := cmd.Flags().GetString("compile-force-framework")
		if err != nil {
			return nil, "", err
		}
		platformConfig, err := projectConfig.Compilation.GetPlatformConfig()
		if err != nil {
			return nil, "", err
		}
		return orchestrator.CompileTarget(platformConfig.GetTarget(), forceFramework)
	}
	return orchestrator.CompileWithConfig(&projectConfig.Compilation)
}

// loadProjectConfig reads the project configuration named by --config-file (or the default filename in the
// current directory, if present), falling back to a fresh default solc configuration if neither exists.
func loadProjectConfig(cmd *cobra.Command) (*configs.ProjectConfig, error) {
	configPath := DefaultProjectConfigFilename
	if cmd.Flags().Changed("config-file") {
		path, err := cmd.Flags().GetString("config-file")
		if err != nil {
			return nil, err
		}
		configPath = path
	}

	if _, err := os.Stat(configPath); err == nil {
		return configs.ReadProjectConfigFromFile(configPath)
	} else if cmd.Flags().Changed("config-file") {
		return nil, fmt.Errorf("could not find configuration file '%s'", configPath)
	}

	return configs.GetDefaultProjectConfig(DefaultCompilationPlatform)
}
