package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trailofbits/ccompile/compilation/platforms"
	"github.com/trailofbits/ccompile/configs"
)

// addCompileFlags adds the shared compile/export flag set to cmd. It is used by both the compile command and
// the export command, since re-exporting a target means recompiling it and then writing the additional formats.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("config-file", "", "path to a project configuration file (defaults to ./"+DefaultProjectConfigFilename+" if present)")
	cmd.Flags().String("compile-force-framework", "", "skip auto-detection and compile the target with a specific platform")

	cmd.Flags().String("solc", "", "path to the solc binary to use (solc platform only)")
	cmd.Flags().StringSlice("solc-args", nil, "additional arguments forwarded to solc verbatim (solc platform only)")
	cmd.Flags().StringSlice("solc-remaps", nil, "import remappings in solc's context:prefix=target form (solc platform only)")
	cmd.Flags().Bool("compile-disable-warnings", false, "drop non-error compiler diagnostics from command output")
	cmd.Flags().Bool("compile-remove-metadata", false, "strip the CBOR metadata trailer from compiled bytecode")

	cmd.Flags().String("etherscan-apikey", "", "API key used to authenticate verification-fetcher requests against Etherscan-style APIs")

	cmd.Flags().StringSlice("export-formats", nil, "export formats to produce after compiling: standard, solc, truffle, archive")
	cmd.Flags().String("export-dir", "", "directory compiled artifacts are exported under")
	cmd.Flags().String("export-zip", "", "if set, bundle every exported file into a single archive at this path")
}

// updateProjectConfigWithCompileFlags updates projectConfig with any flags the caller set on the compile command.
// Flags specific to the solc platform are only applied when the config's current platform is "solc"; they are
// silently ignored otherwise, since they have no meaning for a build-framework adapter.
func updateProjectConfigWithCompileFlags(cmd *cobra.Command, projectConfig *configs.ProjectConfig) error {
	if cmd.Flags().Changed("etherscan-apikey") {
		apiKey, err := cmd.Flags().GetString("etherscan-apikey")
		if err != nil {
			return err
		}
		projectConfig.EtherscanAPIKey = apiKey
	}

	if err := updateSolcFlags(cmd, projectConfig); err != nil {
		return err
	}

	if cmd.Flags().Changed("export-formats") {
		formats, err := cmd.Flags().GetStringSlice("export-formats")
		if err != nil {
			return err
		}
		projectConfig.Export.Formats = formats
	}
	if cmd.Flags().Changed("export-dir") {
		dir, err := cmd.Flags().GetString("export-dir")
		if err != nil {
			return err
		}
		projectConfig.Export.Directory = dir
	}
	if cmd.Flags().Changed("export-zip") {
		zipFile, err := cmd.Flags().GetString("export-zip")
		if err != nil {
			return err
		}
		projectConfig.Export.ZipFile = zipFile
	}

	return nil
}

// updateSolcFlags applies --solc/--solc-args/--solc-remaps/--compile-disable-warnings/--compile-remove-metadata
// onto projectConfig's platform config, if (and only if) it is currently a SolcCompilationConfig.
func updateSolcFlags(cmd *cobra.Command, projectConfig *configs.ProjectConfig) error {
	if projectConfig.Compilation.Platform != "solc" {
		return nil
	}

	platformConfig, err := projectConfig.Compilation.GetPlatformConfig()
	if err != nil {
		return err
	}
	solcConfig, ok := platformConfig.(*platforms.SolcCompilationConfig)
	if !ok {
		return nil
	}

	changed := false

	if cmd.Flags().Changed("solc") {
		solcConfig.SolcPath, err = cmd.Flags().GetString("solc")
		if err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("solc-args") {
		solcConfig.SolcArgs, err = cmd.Flags().GetStringSlice("solc-args")
		if err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("solc-remaps") {
		solcConfig.Remaps, err = cmd.Flags().GetStringSlice("solc-remaps")
		if err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("compile-disable-warnings") {
		solcConfig.DisableWarnings, err = cmd.Flags().GetBool("compile-disable-warnings")
		if err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("compile-remove-metadata") {
		solcConfig.RemoveMetadata, err = cmd.Flags().GetBool("compile-remove-metadata")
		if err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return projectConfig.Compilation.SetPlatformConfig(solcConfig)
}
