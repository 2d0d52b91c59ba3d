package types

// ArchiveExport mirrors the wire shape of the canonical "standard" interchange format described by the export
// package: a Project keyed by compilation unit id. It is shared between the archive-import platform adapter
// (which decodes it back into a Project) and the export package (which encodes a Project into it), so the two
// directions can never drift out of sync with each other.
type ArchiveExport struct {
	CompilationUnits map[string]ArchiveUnit `json:"compilation_units"`
}

// ArchiveUnit mirrors one compilation unit within a standard-format export.
type ArchiveUnit struct {
	Compiler    string                     `json:"compiler"`
	Language    string                     `json:"language"`
	SourceUnits map[string]ArchiveSource   `json:"source_units"`
	WorkingDir  string                     `json:"working_dir"`
	Type        string                     `json:"type"`
	UnitID      string                     `json:"unit_id"`
}

// ArchiveSource mirrors one source unit's exported AST and contracts.
type ArchiveSource struct {
	Ast       any                        `json:"ast"`
	Contracts map[string]ArchiveContract `json:"contracts"`
}

// ArchiveContract mirrors a single exported contract's fields.
type ArchiveContract struct {
	Abi        any                 `json:"abi"`
	Bin        string              `json:"bin"`
	BinRuntime string              `json:"bin-runtime"`
	SrcMaps    ArchiveSrcMaps      `json:"srcmaps"`
	UserDoc    any                 `json:"userdoc"`
	DevDoc     any                 `json:"devdoc"`
	Hashes     map[string]string   `json:"hashes"`
	Kind       string              `json:"kind"`
	ID         int                 `json:"id"`
	Metadata   *NormalizedMetadata `json:"metadata,omitempty"`
}

// ArchiveSrcMaps mirrors the pair of source maps exported per contract.
type ArchiveSrcMaps struct {
	Init    string `json:"init"`
	Runtime string `json:"runtime"`
}

// ToArchiveExport encodes a Project into the canonical standard-format wire shape.
func ToArchiveExport(project *Project) ArchiveExport {
	export := ArchiveExport{CompilationUnits: make(map[string]ArchiveUnit, len(project.Units))}

	for _, unit := range project.Units {
		archivedUnit := ArchiveUnit{
			Compiler:    unit.CompilerVersion,
			Language:    unit.Language,
			SourceUnits: make(map[string]ArchiveSource, len(unit.Sources)),
			Type:        project.Platform,
			UnitID:      unit.ID,
		}

		for sourcePath, source := range unit.Sources {
			if archivedUnit.WorkingDir == "" && source.Filename.Relative() != "" {
				if abs, rel := source.Filename.Absolute(), source.Filename.Relative(); len(abs) > len(rel) {
					archivedUnit.WorkingDir = abs[:len(abs)-len(rel)]
				}
			}

			archivedSource := ArchiveSource{Contracts: make(map[string]ArchiveContract, len(source.Contracts))}
			if source.Ast != nil {
				archivedSource.Ast = source.Ast
			}

			for name, contract := range source.Contracts {
				archivedSource.Contracts[name] = ArchiveContract{
					Abi:        contract.Abi,
					Bin:        hexString(contract.InitBytecode),
					BinRuntime: hexString(contract.RuntimeBytecode),
					SrcMaps:    ArchiveSrcMaps{Init: contract.SrcMapsInit, Runtime: contract.SrcMapsRuntime},
					UserDoc:    natSpecUserDoc(contract.NatSpec),
					DevDoc:     natSpecDevDoc(contract.NatSpec),
					Hashes:     methodHashes(contract),
					Kind:       string(contract.Kind),
					ID:         contract.ID,
					Metadata:   contractMetadata(contract),
				}
			}

			archivedUnit.SourceUnits[sourcePath] = archivedSource
		}

		export.CompilationUnits[unit.ID] = archivedUnit
	}

	return export
}

// methodHashes returns the 4-byte selector (hex-encoded, no "0x" prefix) for every method in the contract's ABI,
// keyed by its canonical signature. This mirrors the "hashes" field of a Truffle/standard-format export, which
// callers use to resolve a trace's selector back to a human-readable signature without re-deriving it from the ABI.
func methodHashes(contract CompiledContract) map[string]string {
	hashes := make(map[string]string, len(contract.Abi.Methods))
	for _, method := range contract.Abi.Methods {
		hashes[method.Sig] = hexEncodeNoPrefix(method.ID)
	}
	return hashes
}

// contractMetadata decodes the CBOR metadata trailer embedded in contract's runtime bytecode (falling back to its
// init bytecode for contracts compiled without a deployed runtime, e.g. libraries), normalized into display form.
// Returns nil if bytecode carries no decodable metadata trailer.
func contractMetadata(contract CompiledContract) *NormalizedMetadata {
	metadata := ExtractContractMetadata(contract.RuntimeBytecode)
	if metadata == nil {
		metadata = ExtractContractMetadata(contract.InitBytecode)
	}
	if metadata == nil {
		return nil
	}
	normalized := metadata.Normalize()
	return &normalized
}

func natSpecUserDoc(n *NatSpec) any {
	if n == nil {
		return nil
	}
	methods := make(map[string]any, len(n.Methods))
	for sig, entry := range n.Methods {
		methods[sig] = map[string]any{"notice": entry.Notice}
	}
	return map[string]any{"notice": n.Notice, "methods": methods}
}

func natSpecDevDoc(n *NatSpec) any {
	if n == nil {
		return nil
	}
	methods := make(map[string]any, len(n.Methods))
	for sig, entry := range n.Methods {
		methods[sig] = map[string]any{"details": entry.Details, "params": entry.Params, "return": entry.Return}
	}
	return map[string]any{"title": n.Title, "methods": methods}
}

func hexEncodeNoPrefix(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
