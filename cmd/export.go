package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailofbits/ccompile/compilation"
	"github.com/trailofbits/ccompile/compilation/export"
)

// exportCmd represents the command provider for export. It compiles a target exactly as the compile command
// does, but always writes at least one export format afterward, defaulting to "standard" if the caller didn't
// request a specific set via --export-formats.
var exportCmd = &cobra.Command{
	Use:           "export [target]",
	Short:         "Compiles a smart contract project and exports the result",
	Long:          "Compiles a target and serializes the result to one or more interchange formats: standard, solc, truffle, archive",
	Args:          cobra.MaximumNArgs(1),
	RunE:          cmdRunExport,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	addCompileFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

// cmdRunExport executes the export CLI command.
func cmdRunExport(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error(err.Error())
		return err
	}

	if err := updateProjectConfigWithCompileFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error(err.Error())
		return err
	}
	if len(projectConfig.Export.Formats) == 0 {
		projectConfig.Export.Formats = []string{export.FormatStandard}
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

	return nil
}
