package types

import (
	"encoding/hex"
	"testing"

	"github.com/fxamacker/cbor"
	"github.com/stretchr/testify/assert"
)

// encodeMetadataTrailer CBOR-encodes metadata and appends the 2-byte big-endian length suffix solc emits after it,
// mirroring how ExtractContractMetadata expects to find it at the end of deployed bytecode.
func encodeMetadataTrailer(t *testing.T, metadata map[string]any) []byte {
	t.Helper()
	encoded, err := cbor.Marshal(metadata, cbor.EncOptions{})
	assert.NoError(t, err)

	length := len(encoded)
	suffix := []byte{byte(length >> 8), byte(length)}
	return append(encoded, suffix...)
}

// TestExtractContractMetadataByLengthSuffix ensures the length-suffixed CBOR trailer format is decoded correctly.
func TestExtractContractMetadataByLengthSuffix(t *testing.T) {
	trailer := encodeMetadataTrailer(t, map[string]any{
		"solc":         []byte{0x0, 0x8, 0x1c},
		"bzzr1":        []byte{0xde, 0xad, 0xbe, 0xef},
		"experimental": true,
	})

	bytecode := append([]byte{0x60, 0x00, 0x60, 0x00, 0x52}, trailer...)
	metadata := ExtractContractMetadata(bytecode)
	assert.NotNil(t, metadata)

	version, ok := metadata.SolcVersion()
	assert.True(t, ok)
	assert.Equal(t, "0.8.28", version)
	assert.True(t, metadata.Experimental())
}

// TestSolcVersionUnknownEncoding ensures a present but malformed "solc" entry normalizes to the literal "unknown"
// rather than a raw byte dump, and that a wholly absent entry reports false.
func TestSolcVersionUnknownEncoding(t *testing.T) {
	malformed := ContractMetadata{"solc": []byte{0x0, 0x8}}
	version, ok := malformed.SolcVersion()
	assert.True(t, ok)
	assert.Equal(t, "unknown", version)

	absent := ContractMetadata{}
	_, ok = absent.SolcVersion()
	assert.False(t, ok)
}

// TestNormalizeDaiBzzr1 exercises the bzzr1 swarm hash from a real mainnet Dai metadata trailer, decoded to the
// lowercase hex form consumers expect.
func TestNormalizeDaiBzzr1(t *testing.T) {
	expectedHex := "92df983266c28b6fb4c7c776b695725fd63d55b8cd5d5618b69fb544ce801d85"
	hashBytes, err := hex.DecodeString(expectedHex)
	assert.NoError(t, err)

	metadata := ContractMetadata{
		"solc":  []byte{0x0, 0x5, 0xc},
		"bzzr1": hashBytes,
	}

	normalized := metadata.Normalize()
	assert.Equal(t, "0.5.12", normalized.SolcVersion)
	assert.Equal(t, expectedHex, normalized.Bzzr1)
}

// TestNormalizeIPFSMultibase ensures an ipfs metadata hash is rendered as a "z"-prefixed base58btc multibase
// string rather than left as raw bytes.
func TestNormalizeIPFSMultibase(t *testing.T) {
	metadata := ContractMetadata{"ipfs": []byte{0x12, 0x20, 0xde, 0xad, 0xbe, 0xef}}
	normalized := metadata.Normalize()
	assert.NotEmpty(t, normalized.IPFS)
	assert.Equal(t, byte('z'), normalized.IPFS[0])
}
