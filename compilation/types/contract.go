package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

// CompiledContract represents a single contract definition produced by a compilation unit.
type CompiledContract struct {
	// Name is the contract's unqualified name, e.g. "Token".
	Name string

	// ID is the compiler-assigned numeric identifier for this contract (solc's "id" field in combined-json / the
	// AST), used to disambiguate same-named contracts across compilation units and to order deployments.
	ID int

	// Abi describes a contract's application binary interface, a structure used to describe information needed
	// to interact with the contract such as constructor and function definitions with input/output variable
	// information, event declarations, and fallback and receive methods.
	Abi abi.ABI

	// InitBytecode describes the bytecode used to deploy a contract.
	InitBytecode []byte

	// RuntimeBytecode represents the rudimentary bytecode to be expected once the contract has been successfully
	// deployed. This may differ at runtime based on constructor arguments, immutables, linked libraries, etc.
	RuntimeBytecode []byte

	// SrcMapsInit describes the source mappings to associate source file and bytecode segments in InitBytecode.
	SrcMapsInit string

	// SrcMapsRuntime describes the source mappings to associate source file and bytecode segments in RuntimeBytecode.
	SrcMapsRuntime string

	// Kind describes the kind of contract, i.e. contract, library, interface, abstract contract.
	Kind ContractKind

	// LibraryPlaceholders maps a placeholder token (with surrounding "__"/"__$...$__" markers stripped) to the
	// fully qualified library name it refers to, if known. When a contract has placeholders, these need to be
	// resolved before deployment.
	LibraryPlaceholders map[string]string

	// Dependencies lists the fully qualified names of libraries this contract's bytecode references, in no
	// particular order. A map of contract name to Dependencies is the input shape GetDeploymentOrder takes; nothing
	// in this module passes it there automatically.
	Dependencies []string

	// NatSpec holds the folded user-doc/dev-doc comments for this contract's functions and events, keyed by
	// method/event signature (not by 4-byte selector), plus contract-level notices.
	NatSpec *NatSpec
}

// IsMatch returns a boolean indicating whether provided contract bytecode is a match to this compiled contract
// definition.
func (c *CompiledContract) IsMatch(initBytecode []byte, runtimeBytecode []byte) bool {
	canCompareInit := len(initBytecode) > 0 && len(c.InitBytecode) > 0
	canCompareRuntime := len(runtimeBytecode) > 0 && len(c.RuntimeBytecode) > 0

	// First try matching runtime bytecode contract metadata.
	if canCompareRuntime {
		// We use runtime bytecode for this because init bytecode can have matching metadata hashes for different
		// contracts.
		deploymentMetadata := ExtractContractMetadata(runtimeBytecode)
		definitionMetadata := ExtractContractMetadata(c.RuntimeBytecode)
		if deploymentMetadata != nil && definitionMetadata != nil {
			deploymentBytecodeHash := deploymentMetadata.ExtractBytecodeHash()
			definitionBytecodeHash := definitionMetadata.ExtractBytecodeHash()
			if deploymentBytecodeHash != nil && definitionBytecodeHash != nil {
				return bytes.Equal(deploymentBytecodeHash, definitionBytecodeHash)
			}
		}
	}

	// Since we could not match with runtime bytecode's metadata hashes, try matching based on init code. The
	// deployed init bytecode may have constructor arguments appended, so slice it down to size first.
	if canCompareInit {
		if len(c.InitBytecode) > len(initBytecode) {
			return false
		}
		cutDeployedInitBytecode := initBytecode[:len(c.InitBytecode)]
		if bytes.Equal(cutDeployedInitBytecode, c.InitBytecode) {
			return true
		}
	}

	// As a final fallback, compare the whole runtime bytecode (least likely to match, since the deployment
	// process, e.g. immutables, will change the runtime code in most cases).
	if canCompareRuntime {
		if bytes.Equal(runtimeBytecode, c.RuntimeBytecode) {
			return true
		}
	}

	return false
}

// ParseABIFromInterface parses a generic object into an abi.ABI and returns it, or an error if one occurs.
func ParseABIFromInterface(i any) (*abi.ABI, error) {
	var (
		result abi.ABI
		err    error
	)

	if s, ok := i.(string); ok {
		result, err = abi.JSON(strings.NewReader(s))
		if err != nil {
			return nil, err
		}
	} else {
		var b []byte
		b, err = json.Marshal(i)
		if err != nil {
			return nil, err
		}
		result, err = abi.JSON(strings.NewReader(string(b)))
		if err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// InitBytecodeBytes decodes InitBytecode, which may be stored as a "0x"-prefixed hex string cast to []byte, into
// its raw byte representation.
func (c *CompiledContract) InitBytecodeBytes() ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(string(c.InitBytecode), "0x"))
}

// RuntimeBytecodeBytes decodes RuntimeBytecode in the same manner as InitBytecodeBytes.
func (c *CompiledContract) RuntimeBytecodeBytes() ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(string(c.RuntimeBytecode), "0x"))
}

// GetDeploymentMessageData creates contract deployment message data for the given contract: the init bytecode with
// ABI-encoded constructor arguments appended. This data can be set in a transaction's "data" field.
func (c *CompiledContract) GetDeploymentMessageData(args []any) ([]byte, error) {
	initBytecodeWithArgs := slices.Clone(c.InitBytecode)
	if len(c.Abi.Constructor.Inputs) > 0 {
		data, err := c.Abi.Pack("", args...)
		if err != nil {
			return nil, fmt.Errorf("could not encode constructor arguments due to error: %v", err)
		}
		initBytecodeWithArgs = append(initBytecodeWithArgs, data...)
	}
	return initBytecodeWithArgs, nil
}

// placeholderPattern matches both the legacy name-based placeholder scheme (__LibraryName_padded_to_40_chars__)
// and the newer keccak-hash-based scheme (__$<34 hex chars>$__).
var placeholderPattern = regexp.MustCompile(`__(\$[0-9a-fA-F]{34}\$|[0-9a-zA-Z_$]*)__`)

// ParseBytecodeForPlaceholders scans bytecode (as a hex string, with or without the "0x" prefix) for library link
// placeholders and returns the set of distinct placeholder tokens found, with surrounding "__"/"__$...$__" markers
// and padding stripped.
func ParseBytecodeForPlaceholders(bytecode string) map[string]any {
	substrings := placeholderPattern.FindAllString(bytecode, -1)

	substringSet := make(map[string]any)
	for _, substring := range substrings {
		substring = strings.ReplaceAll(strings.ReplaceAll(substring, "_", ""), "$", "")
		if _, exists := substringSet[substring]; !exists {
			substringSet[substring] = nil
		}
	}
	return substringSet
}

// ReplacePlaceholdersInBytecode replaces this contract's library placeholders with deployed library addresses in
// InitBytecode, decoding it from hex first if necessary.
func (c *CompiledContract) ReplacePlaceholdersInBytecode(deployedLibraries map[string]common.Address) error {
	if len(c.LibraryPlaceholders) == 0 {
		return nil
	}

	resolved, err := ReplacePlaceholdersInBytecode([]byte(hexString(c.InitBytecode)), c.LibraryPlaceholders, deployedLibraries)
	if err != nil {
		return err
	}

	decoded, err := hex.DecodeString(strings.TrimPrefix(string(resolved), "0x"))
	if err != nil {
		return fmt.Errorf("unable to decode init bytecode after library linking: %w", err)
	}
	c.InitBytecode = decoded
	return nil
}

// hexString returns bytecode as a hex string if it does not already look like one (platform adapters sometimes
// store bytecode as a raw hex string cast to []byte rather than decoded bytes, prior to linking).
func hexString(bytecode []byte) string {
	s := string(bytecode)
	if strings.HasPrefix(s, "0x") {
		return s
	}
	if _, err := hex.DecodeString(s); err == nil {
		return s
	}
	return "0x" + hex.EncodeToString(bytecode)
}
