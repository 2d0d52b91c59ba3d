package configs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/trailofbits/ccompile/compilation"
)

// ProjectConfig describes the full set of settings loaded from a `--config-file` document: how to compile a
// target, and how to export the result afterward.
type ProjectConfig struct {
	// Compilation describes the configuration used to compile the underlying target.
	Compilation compilation.CompilationConfig `json:"compilation"`

	// Export describes the configuration used to serialize compiled output to disk, if requested.
	Export ExportConfig `json:"export"`

	// EtherscanAPIKey authenticates requests made by the verification fetcher against Etherscan-style APIs. Falls
	// back to the ETHERSCAN_API_KEY environment variable when empty.
	EtherscanAPIKey string `json:"etherscanApiKey,omitempty"`
}

// ExportConfig describes where and in which format(s) a compiled Project should be serialized.
type ExportConfig struct {
	// Formats lists the export formats to produce: any of "standard", "solc", "truffle", "archive".
	Formats []string `json:"formats,omitempty"`

	// Directory is the output directory compiled artifacts are written under. Defaults to "crytic-export".
	Directory string `json:"directory,omitempty"`

	// ZipFile, if non-empty, packs every produced export file into a single archive at this path.
	ZipFile string `json:"zipFile,omitempty"`

	// ZipType selects the archive format used when ZipFile is set (e.g. "zip").
	ZipType string `json:"zipType,omitempty"`
}

// DefaultExportDirectory is the export directory used when none is configured.
const DefaultExportDirectory = "crytic-export"

// GetDefaultProjectConfig obtains a default configuration for a project, given a compilation platform identifier.
func GetDefaultProjectConfig(platform string) (*ProjectConfig, error) {
	compilationConfig, err := compilation.NewCompilationConfig(platform)
	if err != nil {
		return nil, err
	}

	return &ProjectConfig{
		Compilation: *compilationConfig,
		Export: ExportConfig{
			Directory: DefaultExportDirectory,
		},
	}, nil
}

// ReadProjectConfigFromFile reads and parses a ProjectConfig from the JSON document at path.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	var projectConfig ProjectConfig
	if err = json.Unmarshal(b, &projectConfig); err != nil {
		return nil, fmt.Errorf("could not parse configuration file '%s': %w", path, err)
	}

	if projectConfig.Export.Directory == "" {
		projectConfig.Export.Directory = DefaultExportDirectory
	}

	return &projectConfig, nil
}

// WriteToFile serializes the project configuration as indented JSON to the given path.
func (p *ProjectConfig) WriteToFile(path string) error {
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return err
	}

	if err = os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("could not write configuration file '%s': %w", path, err)
	}

	return nil
}
