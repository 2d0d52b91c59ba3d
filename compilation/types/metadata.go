package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor"
	"github.com/multiformats/go-multibase"
)

// ContractMetadata is a CBOR-encoded structure describing contract information which is embedded within smart
// contract bytecode by the Solidity compiler (unless explicitly directed not to).
// Reference: https://docs.soliditylang.org/en/v0.8.16/metadata.html
type ContractMetadata map[string]any

// metadataHashPrefixes defines patterns used to locate CBOR-encoded contract metadata appended to the end of
// bytecode. They are scanned for only when the 2-byte length suffix (below) does not locate a decodable trailer.
var metadataHashPrefixes = [][]byte{
	{0xa1, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a1 65 "bzzr0" 0x58 0x20 (solc <= 0.5.8)
	{0xa2, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a2 65 "bzzr0" 0x58 0x20 (solc >= 0.5.9)
	{0xa2, 0x65, 98, 122, 122, 114, 49, 0x58, 0x20},  // a2 65 "bzzr1" 0x58 0x20 (solc >= 0.5.11)
	{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73, 0x58, 0x22}, // a2 64 "ipfs" 0x58 0x22 (solc >= 0.6.0)
}

// byteCodeHashMetadataKeys defines the keys in the CBOR-encoded ContractMetadata which contain bytecode hashes.
var byteCodeHashMetadataKeys = [...]string{
	"bzzr0",
	"bzzr1",
	"ipfs",
}

// ExtractContractMetadata extracts contract metadata from the provided bytecode and returns it, or nil if none
// could be found.
//
// Since solc 0.5.9 the CBOR metadata trailer is followed by a 2-byte big-endian integer giving its length, so the
// trailer's start offset can be computed directly from the end of the bytecode; that is tried first. If it does
// not decode (e.g. an older compiler, or trailing data after the trailer), this falls back to scanning for one of
// the known CBOR map prefixes.
func ExtractContractMetadata(bytecode []byte) *ContractMetadata {
	if metadata := extractMetadataByLengthSuffix(bytecode); metadata != nil {
		return metadata
	}

	for _, metadataHashPrefix := range metadataHashPrefixes {
		metadataOffset := bytes.LastIndex(bytecode, metadataHashPrefix[:])
		if metadataOffset != -1 {
			var metadata ContractMetadata
			if err := cbor.Unmarshal(bytecode[metadataOffset:], &metadata); err == nil {
				return &metadata
			}
		}
	}
	return nil
}

// extractMetadataByLengthSuffix decodes the CBOR trailer using the trailing 2-byte big-endian length prefix that
// solc appends after the metadata itself.
func extractMetadataByLengthSuffix(bytecode []byte) *ContractMetadata {
	if len(bytecode) < 2 {
		return nil
	}

	metadataLength := int(binary.BigEndian.Uint16(bytecode[len(bytecode)-2:]))
	if metadataLength <= 0 || metadataLength+2 > len(bytecode) {
		return nil
	}

	candidate := bytecode[len(bytecode)-2-metadataLength : len(bytecode)-2]
	var metadata ContractMetadata
	if err := cbor.Unmarshal(candidate, &metadata); err != nil {
		return nil
	}
	return &metadata
}

// RemoveContractMetadata takes bytecode and attempts to detect contract metadata within it, splitting it where the
// metadata is found.
// If contract metadata could be located, this method returns the bytecode solely (no contract metadata, and no
// constructor arguments, which tend to follow).
// Otherwise, this method returns the provided input as-is.
func RemoveContractMetadata(bytecode []byte) []byte {
	if len(bytecode) >= 2 {
		metadataLength := int(binary.BigEndian.Uint16(bytecode[len(bytecode)-2:]))
		if metadataLength > 0 && metadataLength+2 <= len(bytecode) {
			offset := len(bytecode) - 2 - metadataLength
			var metadata ContractMetadata
			if err := cbor.Unmarshal(bytecode[offset:len(bytecode)-2], &metadata); err == nil {
				return bytecode[:offset]
			}
		}
	}

	for _, metadataHashPrefix := range metadataHashPrefixes {
		metadataOffset := bytes.LastIndex(bytecode, metadataHashPrefix[:])
		if metadataOffset != -1 {
			return bytecode[:metadataOffset]
		}
	}
	return bytecode
}

// ExtractBytecodeHash extracts the bytecode hash from given contract metadata and returns the bytes representing the
// hash. If it could not be detected or extracted, nil is returned.
func (m ContractMetadata) ExtractBytecodeHash() []byte {
	for _, possibleMetadataKey := range byteCodeHashMetadataKeys {
		if bytecodeHashData, keyExists := m[possibleMetadataKey]; keyExists {
			if bytecodeHash, ok := bytecodeHashData.([]byte); ok {
				return bytecodeHash
			}
		}
	}
	return nil
}

// SolcVersion returns the solc version embedded in the metadata as a dotted "major.minor.patch" string, the
// literal "unknown" if the key is present but not in the expected 3-byte [major, minor, patch] encoding, or false
// if the key is absent entirely.
func (m ContractMetadata) SolcVersion() (string, bool) {
	v, ok := m["solc"]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	// Newer solc encodes the version as a 3-byte array [major, minor, patch].
	if b, ok := v.([]byte); ok && len(b) == 3 {
		return fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2]), true
	}
	return "unknown", true
}

// Experimental returns whether the metadata's experimental flag is set.
func (m ContractMetadata) Experimental() bool {
	v, ok := m["experimental"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// NormalizedMetadata is the display/export form of ContractMetadata, with its byte-valued entries decoded into
// the encodings documented for each key rather than raw CBOR byte strings.
type NormalizedMetadata struct {
	// SolcVersion is the dotted compiler version string, or "unknown" if solc encoded it in an unrecognized form.
	SolcVersion string `json:"solc,omitempty"`

	// IPFS is the ipfs metadata hash rendered as a multibase string (base58btc, "z"-prefixed), as consumers expect
	// to see it displayed alongside an ipfs:// URI.
	IPFS string `json:"ipfs,omitempty"`

	// Bzzr0 is the bzzr0 swarm hash rendered as lowercase hex.
	Bzzr0 string `json:"bzzr0,omitempty"`

	// Bzzr1 is the bzzr1 swarm hash rendered as lowercase hex.
	Bzzr1 string `json:"bzzr1,omitempty"`

	// Experimental mirrors ContractMetadata.Experimental.
	Experimental bool `json:"experimental,omitempty"`
}

// Normalize decodes m into its display form: the solc version as a dotted string, the ipfs hash as a multibase
// string, and the bzzr0/bzzr1 swarm hashes as lowercase hex.
func (m ContractMetadata) Normalize() NormalizedMetadata {
	solcVersion, ok := m.SolcVersion()
	if !ok {
		solcVersion = "unknown"
	}

	normalized := NormalizedMetadata{
		SolcVersion:  solcVersion,
		Experimental: m.Experimental(),
	}

	if b, ok := m["ipfs"].([]byte); ok {
		if encoded, err := multibase.Encode(multibase.Base58BTC, b); err == nil {
			normalized.IPFS = encoded
		}
	}
	if b, ok := m["bzzr0"].([]byte); ok {
		normalized.Bzzr0 = hex.EncodeToString(b)
	}
	if b, ok := m["bzzr1"].([]byte); ok {
		normalized.Bzzr1 = hex.EncodeToString(b)
	}

	return normalized
}
