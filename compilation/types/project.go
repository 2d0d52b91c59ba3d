package types

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Project is the top-level result of compiling a target. A target may resolve to more than one CompilationUnit
// (a monorepo with several Hardhat/Foundry sub-roots, or a single target that a platform adapter splits into
// several independent solc/vyper invocations), so Project is simply the ordered collection of units produced by
// a single orchestrator run, plus the identity index shared across all of them.
type Project struct {
	// Units holds every CompilationUnit produced while resolving the target, in the order the platform adapter
	// emitted them.
	Units []*CompilationUnit

	// Platform identifies which platform adapter produced this Project (e.g. "foundry", "hardhat", "truffle").
	Platform string

	// identity maps an absolute path to the Filename that was first registered for it, so the same physical file
	// referenced by two compilation units resolves to one identity.
	identity map[string]Filename
}

// NewProject returns an empty Project for the given platform identifier.
func NewProject(platform string) *Project {
	return &Project{
		Platform: platform,
		identity: make(map[string]Filename),
	}
}

// RegisterFilename records fn in the project-wide identity index, returning the canonical Filename for its
// absolute path. If a Filename for the same absolute path was already registered, the previously registered one
// is returned instead so every SourceUnit referencing that file shares a single identity.
func (p *Project) RegisterFilename(fn Filename) Filename {
	if existing, ok := p.identity[fn.Absolute()]; ok {
		return existing
	}
	p.identity[fn.Absolute()] = fn
	return fn
}

// AddUnit appends a CompilationUnit to the project.
func (p *Project) AddUnit(unit *CompilationUnit) {
	p.Units = append(p.Units, unit)
}

// AllContracts returns every CompiledContract across every unit and source in the project, keyed by
// "<sourcePath>:<contractName>".
func (p *Project) AllContracts() map[string]*CompiledContract {
	contracts := make(map[string]*CompiledContract)
	for _, unit := range p.Units {
		for path, source := range unit.Sources {
			for name := range source.Contracts {
				contract := source.Contracts[name]
				contracts[path+":"+name] = &contract
			}
		}
	}
	return contracts
}

// CompilationUnit represents one independent invocation of a compiler backend (e.g. one `solc --standard-json`
// call, or one Hardhat artifact directory). It groups the SourceUnits that were compiled together and the
// compiler version/settings used to produce them.
type CompilationUnit struct {
	// ID is a stable identifier for this unit, used to correlate units across re-compilation runs (e.g. for the
	// artifact hash cache) and to disambiguate identically-named contracts across units.
	ID string

	// Sources maps a source file path (as reported by the compiler, e.g. "contracts/Token.sol") to its SourceUnit.
	Sources map[string]*SourceUnit

	// CompilerVersion is the version string of the compiler backend that produced this unit (e.g. "0.8.19+commit...").
	CompilerVersion string

	// Language is the source language compiled ("Solidity" or "Vyper").
	Language string
}

// NewCompilationUnit creates an empty CompilationUnit. If contentSeed is non-empty, the unit ID is derived
// deterministically from it (keccak256, hex-encoded, first 16 bytes) so repeated compiles of identical input
// produce identical unit IDs; otherwise a random UUID is used.
func NewCompilationUnit(language string, compilerVersion string, contentSeed string) *CompilationUnit {
	id := uuid.New().String()
	if contentSeed != "" {
		hash := sha3.NewLegacyKeccak256()
		hash.Write([]byte(contentSeed))
		id = hex.EncodeToString(hash.Sum(nil)[:16])
	}

	return &CompilationUnit{
		ID:              id,
		Sources:         make(map[string]*SourceUnit),
		CompilerVersion: compilerVersion,
		Language:        language,
	}
}

// Add registers a SourceUnit under the given source path, overwriting any previous entry for that path.
func (c *CompilationUnit) Add(sourcePath string, source *SourceUnit) {
	c.Sources[sourcePath] = source
}

// Contracts returns every CompiledContract in the unit keyed by contract name, across all sources. If the same
// contract name appears in more than one source, the last one encountered (in Go's unordered map iteration) wins;
// callers that care about ambiguity should iterate Sources directly instead.
func (c *CompilationUnit) Contracts() map[string]CompiledContract {
	result := make(map[string]CompiledContract)
	for _, source := range c.Sources {
		for name, contract := range source.Contracts {
			result[name] = contract
		}
	}
	return result
}

// SourceUnit represents a single source file's compilation output: its AST (if the platform provided one) and the
// contracts defined within it.
type SourceUnit struct {
	// Filename is the identity of the file this source unit was compiled from.
	Filename Filename

	// ID is the compiler-internal numeric identifier for this source (used to resolve SourceMapElement.SourceUnitID).
	ID int

	// Ast holds the parsed AST for this source, or nil if the platform adapter did not request/parse one.
	Ast *AST

	// Contracts maps contract name to its compiled artifact.
	Contracts map[string]CompiledContract
}

// NewSourceUnit creates an empty SourceUnit for the given Filename.
func NewSourceUnit(filename Filename, id int) *SourceUnit {
	return &SourceUnit{
		Filename:  filename,
		ID:        id,
		Contracts: make(map[string]CompiledContract),
	}
}
