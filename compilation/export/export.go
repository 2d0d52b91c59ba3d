// Package export serializes a compiled types.Project to disk in one of the interchange formats external tooling
// expects to consume: the canonical "standard" format, a flattened "solc" combined-json-shaped format, a
// "truffle" format (one JSON file per contract), and an "archive" format suitable for later re-import via the
// archive platform adapter.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/trailofbits/ccompile/compilation/types"
	"github.com/trailofbits/ccompile/utils"
)

const (
	FormatStandard = "standard"
	FormatSolc     = "solc"
	FormatTruffle  = "truffle"
	FormatArchive  = "archive"
)

// ValidFormats lists every export format this package can produce.
var ValidFormats = []string{FormatStandard, FormatSolc, FormatTruffle, FormatArchive}

// IsValidFormat reports whether format names a supported export format.
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}

// Options configures where and how a Project is exported.
type Options struct {
	// Directory is the output directory exported files are written under (created if missing).
	Directory string

	// Target names the compilation target that produced project, used to name the archive export file.
	Target string

	// ZipFile, if non-empty, additionally packs every file written during this export into a single zip archive at
	// this path; the loose files are left on disk as well.
	ZipFile string
}

// Export writes project to disk in each of formats under opts.Directory, per spec:
//   - "standard"  -> contracts.json
//   - "solc"      -> combined_solc.json
//   - "truffle"   -> one <ContractName>.json file per contract
//   - "archive"   -> <target>_export_archive.json, suitable for re-import
//
// If opts.ZipFile is set, every file written is additionally packed into a single zip archive and the loose
// files are left in place (the zip is a convenience bundle, not a replacement for the directory tree).
func Export(project *types.Project, formats []string, opts Options) error {
	if opts.Directory == "" {
		return fmt.Errorf("export directory must not be empty")
	}
	if err := utils.MakeDirectory(opts.Directory); err != nil {
		return fmt.Errorf("could not create export directory '%s': %w", opts.Directory, err)
	}

	var written []string
	for _, format := range formats {
		var paths []string
		var err error

		switch format {
		case FormatStandard:
			paths, err = exportStandard(project, opts.Directory)
		case FormatSolc:
			paths, err = exportSolc(project, opts.Directory)
		case FormatTruffle:
			paths, err = exportTruffle(project, opts.Directory)
		case FormatArchive:
			paths, err = exportArchive(project, opts.Directory, opts.Target)
		default:
			err = fmt.Errorf("unsupported export format '%s'", format)
		}
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	if opts.ZipFile != "" {
		if err := zipFiles(opts.ZipFile, opts.Directory, written); err != nil {
			return fmt.Errorf("could not create export zip '%s': %w", opts.ZipFile, err)
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// exportStandard writes the canonical standard-format document to "<dir>/contracts.json".
func exportStandard(project *types.Project, dir string) ([]string, error) {
	path := filepath.Join(dir, "contracts.json")
	if err := writeJSON(path, types.ToArchiveExport(project)); err != nil {
		return nil, fmt.Errorf("could not write standard export: %w", err)
	}
	return []string{path}, nil
}

// solcCombinedJSON mirrors solc's own `--combined-json` output shape, which is the format the "solc" export
// format reproduces so downstream tooling written against raw solc output can consume a ccompile result as-is.
type solcCombinedJSON struct {
	Contracts map[string]solcCombinedContract `json:"contracts"`
	Version   string                          `json:"version"`
}

type solcCombinedContract struct {
	Abi             any    `json:"abi"`
	Bin             string `json:"bin"`
	BinRuntime      string `json:"bin-runtime"`
	SrcMap          string `json:"srcmap"`
	SrcMapRuntime   string `json:"srcmap-runtime"`
	UserDoc         any    `json:"userdoc"`
	DevDoc          any    `json:"devdoc"`
}

// exportSolc writes a flattened, solc-combined-json-shaped document to "<dir>/combined_solc.json", merging every
// compilation unit in project since solc's own combined-json has no concept of multiple units.
func exportSolc(project *types.Project, dir string) ([]string, error) {
	doc := solcCombinedJSON{Contracts: make(map[string]solcCombinedContract)}

	for _, unit := range project.Units {
		if doc.Version == "" {
			doc.Version = unit.CompilerVersion
		}
		for sourcePath, source := range unit.Sources {
			for name, contract := range source.Contracts {
				key := sourcePath + ":" + name
				var userDoc, devDoc any
				if contract.NatSpec != nil {
					userDoc = map[string]any{"notice": contract.NatSpec.Notice}
					devDoc = map[string]any{"title": contract.NatSpec.Title}
				}
				doc.Contracts[key] = solcCombinedContract{
					Abi:           contract.Abi,
					Bin:           hexString(contract.InitBytecode),
					BinRuntime:    hexString(contract.RuntimeBytecode),
					SrcMap:        contract.SrcMapsInit,
					SrcMapRuntime: contract.SrcMapsRuntime,
					UserDoc:       userDoc,
					DevDoc:        devDoc,
				}
			}
		}
	}

	path := filepath.Join(dir, "combined_solc.json")
	if err := writeJSON(path, doc); err != nil {
		return nil, fmt.Errorf("could not write solc export: %w", err)
	}
	return []string{path}, nil
}

// truffleArtifact mirrors a single Truffle-style per-contract artifact file.
type truffleArtifact struct {
	ContractName    string `json:"contractName"`
	Abi             any    `json:"abi"`
	Bytecode        string `json:"bytecode"`
	DeployedBytecode string `json:"deployedBytecode"`
	SourceMap       string `json:"sourceMap"`
	DeployedSourceMap string `json:"deployedSourceMap"`
	SourcePath      string `json:"sourcePath"`
	CompilerVersion string `json:"compiler_version"`
}

// exportTruffle writes one "<dir>/<ContractName>.json" file per contract in project, in Truffle's per-contract
// artifact shape. If two contracts share a name across compilation units, the later one encountered overwrites
// the earlier file on disk (Truffle's own artifact directory has the same limitation: one file per name).
func exportTruffle(project *types.Project, dir string) ([]string, error) {
	var written []string
	for _, unit := range project.Units {
		for sourcePath, source := range unit.Sources {
			for name, contract := range source.Contracts {
				artifact := truffleArtifact{
					ContractName:      name,
					Abi:               contract.Abi,
					Bytecode:          hexString(contract.InitBytecode),
					DeployedBytecode:  hexString(contract.RuntimeBytecode),
					SourceMap:         contract.SrcMapsInit,
					DeployedSourceMap: contract.SrcMapsRuntime,
					SourcePath:        sourcePath,
					CompilerVersion:   unit.CompilerVersion,
				}
				path := filepath.Join(dir, name+".json")
				if err := writeJSON(path, artifact); err != nil {
					return nil, fmt.Errorf("could not write truffle export for contract '%s': %w", name, err)
				}
				written = append(written, path)
			}
		}
	}
	return written, nil
}

// exportArchive writes a re-importable archive document to "<dir>/<target>_export_archive.json". The document
// shape is identical to the standard format; the distinct filename keeps it apart from the standard format's
// contracts.json when both are written to the same directory.
func exportArchive(project *types.Project, dir string, target string) ([]string, error) {
	base := filepath.Base(target)
	if base == "" || base == "." {
		base = "project"
	}
	path := filepath.Join(dir, base+"_export_archive.json")
	if err := writeJSON(path, types.ToArchiveExport(project)); err != nil {
		return nil, fmt.Errorf("could not write archive export: %w", err)
	}
	return []string{path}, nil
}

// zipFiles packs paths (each expected to live under baseDir) into a single zip archive at zipPath, storing each
// entry under its path relative to baseDir.
func zipFiles(zipPath string, baseDir string, paths []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	for _, path := range paths {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, src)
		src.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2+len(b)*2)
	out[0], out[1] = '0', 'x'
	for i, v := range b {
		out[2+i*2] = hexDigits[v>>4]
		out[2+i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
