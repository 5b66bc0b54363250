package auth

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLoginCode_LengthWithinRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateLoginCode(20, 30)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(code), 20)
		assert.LessOrEqual(t, len(code), 30)
	}
}

func TestGenerateLoginCode_FixedLength(t *testing.T) {
	code, err := GenerateLoginCode(24, 24)
	require.NoError(t, err)
	assert.Len(t, code, 24)
}

func TestGenerateLoginCode_DefaultsOnZeroValues(t *testing.T) {
	code, err := GenerateLoginCode(0, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(code), DefaultMinCodeLength)
}

func TestGenerateLoginCode_CharacterDiversity(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateLoginCode(20, 30)
		require.NoError(t, err)

		hasUpper := false
		hasLower := false
		hasDigit := false
		hasSymbol := false
		for _, r := range code {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			case strings.ContainsRune(symbolChars, r):
				hasSymbol = true
			}
		}

		assert.True(t, hasUpper, "code %q should contain an uppercase letter", code)
		assert.True(t, hasLower, "code %q should contain a lowercase letter", code)
		assert.True(t, hasDigit, "code %q should contain a digit", code)
		assert.True(t, hasSymbol, "code %q should contain a symbol", code)
	}
}

func TestHashLoginCode_SaltedPerCall(t *testing.T) {
	code, err := GenerateLoginCode(20, 20)
	require.NoError(t, err)

	digest1, err := HashLoginCode(code)
	require.NoError(t, err)
	digest2, err := HashLoginCode(code)
	require.NoError(t, err)

	assert.NotEqual(t, digest1, digest2, "two hashes of the same code should differ")
	assert.NoError(t, CompareLoginCode(digest1, code))
	assert.NoError(t, CompareLoginCode(digest2, code))
}

func TestHashLoginCode_EmptyCode(t *testing.T) {
	_, err := HashLoginCode("")
	assert.Error(t, err)
}

func TestCompareLoginCode_Mismatch(t *testing.T) {
	digest, err := HashLoginCode("Aa2!correct-code-value")
	require.NoError(t, err)

	assert.Error(t, CompareLoginCode(digest, "Aa2!wrong-code-value!"))
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "****WXYZ", MaskCode("abcdefWXYZ"))
	assert.Equal(t, "***", MaskCode("abc"))
	assert.Equal(t, "", MaskCode(""))
}
