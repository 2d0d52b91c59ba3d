package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trailofbits/ccompile/configs"
)

// addInitFlags adds the flags for the init command.
func addInitFlags() {
	initCmd.Flags().String("out", "", "output path for the new project configuration file")
	initCmd.Flags().String("compilation-target", "", TargetFlagDescription)
}

// updateProjectConfigWithInitFlags updates projectConfig with any flags the caller set on the init command.
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *configs.ProjectConfig) error {
	if cmd.Flags().Changed("compilation-target") {
		newTarget, err := cmd.Flags().GetString("compilation-target")
		if err != nil {
			return err
		}
		if err := projectConfig.Compilation.SetTarget(newTarget); err != nil {
			return err
		}
	}
	return nil
}
