package types

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/trailofbits/ccompile/compilation/errs"
)

// TestGenerateLibraryPlaceholder ensures the modern placeholder scheme hashes a fully qualified library name down
// to the expected 34 hex character token.
func TestGenerateLibraryPlaceholder(t *testing.T) {
	placeholder := GenerateLibraryPlaceholder("contracts/MathLib.sol:MathLib")
	assert.Len(t, placeholder, 34)
}

// TestGenerateLegacyLibraryPlaceholder ensures short and long library names are both normalized to 36 characters.
func TestGenerateLegacyLibraryPlaceholder(t *testing.T) {
	assert.Equal(t, "MathLib_____________________________", GenerateLegacyLibraryPlaceholder("MathLib"))
	assert.Len(t, GenerateLegacyLibraryPlaceholder("MathLib"), 36)

	longName := "ANameThatIsDefinitelyLongerThanThirtySixCharacters"
	assert.Equal(t, longName[:36], GenerateLegacyLibraryPlaceholder(longName))
}

// TestReplacePlaceholdersInBytecodeResolved ensures a resolved placeholder is substituted with the deployed
// library's address.
func TestReplacePlaceholdersInBytecodeResolved(t *testing.T) {
	fullName := "contracts/MathLib.sol:MathLib"
	placeholder := GenerateLibraryPlaceholder(fullName)
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	bytecode := []byte("0x6000600052" + "__$" + placeholder + "$__" + "600052")
	linked, err := ReplacePlaceholdersInBytecode(bytecode, map[string]string{placeholder: fullName}, map[string]common.Address{fullName: addr})
	assert.NoError(t, err)

	addrHex := common.Bytes2Hex(addr.Bytes())
	assert.Contains(t, string(linked), addrHex)
	assert.NotContains(t, string(linked), placeholder)
}

// TestReplacePlaceholdersInBytecodeUnresolved ensures a placeholder with no matching deployed library fails
// linking with errs.ErrUnresolvedLibrary, naming the unresolved library.
func TestReplacePlaceholdersInBytecodeUnresolved(t *testing.T) {
	fullName := "contracts/AdvancedMath.sol:AdvancedMath"
	placeholder := GenerateLibraryPlaceholder(fullName)

	bytecode := []byte("0x6000600052" + "__$" + placeholder + "$__" + "600052")
	linked, err := ReplacePlaceholdersInBytecode(bytecode, map[string]string{placeholder: fullName}, map[string]common.Address{})

	assert.Nil(t, linked)
	assert.ErrorIs(t, err, errs.ErrUnresolvedLibrary)
	assert.Contains(t, err.Error(), fullName)
}

// TestCompiledContractReplacePlaceholdersInBytecodeUnresolved ensures CompiledContract.ReplacePlaceholdersInBytecode
// surfaces the same unresolved-library failure instead of silently leaving the placeholder in place.
func TestCompiledContractReplacePlaceholdersInBytecodeUnresolved(t *testing.T) {
	fullName := "contracts/AdvancedMath.sol:AdvancedMath"
	placeholder := GenerateLibraryPlaceholder(fullName)

	contract := &CompiledContract{
		InitBytecode:        []byte("0x6000600052" + "__$" + placeholder + "$__" + "600052"),
		LibraryPlaceholders: map[string]string{placeholder: fullName},
	}

	err := contract.ReplacePlaceholdersInBytecode(map[string]common.Address{})
	assert.True(t, errors.Is(err, errs.ErrUnresolvedLibrary))
	assert.Contains(t, err.Error(), fullName)
}

// TestGetDeploymentOrder ensures dependencies are ordered before dependents and cycles are rejected.
func TestGetDeploymentOrder(t *testing.T) {
	order, err := GetDeploymentOrder(map[string][]string{
		"A": {"B"},
		"B": {},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, order)

	_, err = GetDeploymentOrder(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	assert.Error(t, err)
}
