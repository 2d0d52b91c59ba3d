package types

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trailofbits/ccompile/compilation/errs"
)

// GenerateLibraryPlaceholder creates the modern (solc >= 0.5.x) library placeholder token for a fully qualified
// library name ("path/to/File.sol:LibraryName"): the first 34 hex characters (17 bytes) of the keccak256 hash of
// the name, to be wrapped as "__$<hash>$__" in bytecode.
func GenerateLibraryPlaceholder(fullyQualifiedName string) string {
	hash := crypto.Keccak256Hash([]byte(fullyQualifiedName))
	hashStr := hex.EncodeToString(hash.Bytes())
	return hashStr[:34]
}

// GenerateLegacyLibraryPlaceholder creates the legacy (pre-0.5.x) library placeholder token: the library's short
// name, truncated or right-padded with underscores to 36 characters, to be wrapped as "__<name>__" in bytecode.
func GenerateLegacyLibraryPlaceholder(libraryName string) string {
	const legacyPlaceholderLength = 36
	if len(libraryName) >= legacyPlaceholderLength {
		return libraryName[:legacyPlaceholderLength]
	}
	padded := libraryName
	for len(padded) < legacyPlaceholderLength {
		padded += "_"
	}
	return padded
}

// MapPlaceholdersToLibraries resolves each placeholder token found in a contract's bytecode to the fully qualified
// library name it refers to, trying both the modern keccak-hash scheme and the legacy name-based scheme. Entries
// in placeholderToLibrary whose token cannot be resolved against availableLibraries are left unmodified, so the
// caller can surface an "unresolved library" error for any reference that is still unmapped afterward.
func MapPlaceholdersToLibraries(placeholderToLibrary map[string]string, availableLibraries map[string]string) {
	for fullName, shortName := range availableLibraries {
		if hashPlaceholder := GenerateLibraryPlaceholder(fullName); isKnownPlaceholder(placeholderToLibrary, hashPlaceholder) {
			placeholderToLibrary[hashPlaceholder] = fullName
		}
		if legacyPlaceholder := GenerateLegacyLibraryPlaceholder(shortName); isKnownPlaceholder(placeholderToLibrary, legacyPlaceholder) {
			placeholderToLibrary[legacyPlaceholder] = fullName
		}
	}
}

func isKnownPlaceholder(placeholderToLibrary map[string]string, token string) bool {
	_, exists := placeholderToLibrary[token]
	return exists
}

// GetAvailableLibraries builds a map of fully qualified library name ("sourcePath:ContractName") to short library
// name, for every library-kind contract defined across a Project.
func GetAvailableLibraries(project *Project) map[string]string {
	libraryMap := make(map[string]string)
	for _, unit := range project.Units {
		for sourcePath, source := range unit.Sources {
			for contractName, contract := range source.Contracts {
				if contract.Kind != ContractKindLibrary {
					continue
				}
				fullName := filepath.ToSlash(sourcePath) + ":" + contractName
				libraryMap[fullName] = contractName
			}
		}
	}
	return libraryMap
}

// ReplacePlaceholdersInBytecode replaces library placeholders in hex-encoded bytecode with the hex-encoded
// addresses of their deployed libraries. bytecode and the return value are "0x"-prefixed (or bare) hex strings
// cast to []byte; this matches how platform adapters commonly carry not-yet-linked bytecode before decoding.
// Returns errs.ErrUnresolvedLibrary, naming the unlinked library, if any placeholder has no entry in
// deployedLibraries.
func ReplacePlaceholdersInBytecode(bytecode []byte, placeholders map[string]string, deployedLibraries map[string]common.Address) ([]byte, error) {
	bytecodeHex := string(bytecode)
	hadPrefix := false
	if len(bytecodeHex) >= 2 && bytecodeHex[:2] == "0x" {
		bytecodeHex = bytecodeHex[2:]
		hadPrefix = true
	}

	for placeholder, libName := range placeholders {
		libraryAddr, exists := deployedLibraries[libName]
		if !exists {
			return nil, fmt.Errorf("%w: %s", errs.ErrUnresolvedLibrary, libName)
		}

		addrHex := hex.EncodeToString(libraryAddr.Bytes())
		for _, pattern := range []string{
			fmt.Sprintf("__$%s$__", placeholder),
			fmt.Sprintf("__%s__", placeholder),
		} {
			if len(pattern) == len(addrHex) {
				bytecodeHex = replaceAllOccurrences(bytecodeHex, pattern, addrHex)
			}
		}
	}

	if hadPrefix {
		return []byte("0x" + bytecodeHex), nil
	}
	return []byte(bytecodeHex), nil
}

func replaceAllOccurrences(s, old, new string) string {
	if old == "" {
		return s
	}
	result := ""
	for {
		idx := indexOf(s, old)
		if idx == -1 {
			return result + s
		}
		result += s[:idx] + new
		s = s[idx+len(old):]
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// GetDeploymentOrder returns a topologically sorted list of contract/library names based on their dependency
// lists (dependencies come before dependents), or an error if a circular dependency is detected.
func GetDeploymentOrder(contractDependencies map[string][]string) ([]string, error) {
	inDegree := make(map[string]int)
	for node, deps := range contractDependencies {
		inDegree[node] = len(deps)
		for _, dep := range deps {
			if _, exists := inDegree[dep]; !exists {
				inDegree[dep] = 0
			}
		}
	}

	var queue []string
	for node, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for node, deps := range contractDependencies {
			for _, dep := range deps {
				if dep == current {
					inDegree[node]--
					if inDegree[node] == 0 {
						queue = append(queue, node)
					}
				}
			}
		}
	}

	if len(result) != len(inDegree) {
		return result, fmt.Errorf("circular dependency detected in library dependencies")
	}
	return result, nil
}
