package auth

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12 // High enough to resist offline brute force within the code TTL

	DefaultMinCodeLength = 20
	DefaultMaxCodeLength = 30
)

const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnpqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#$%^&*-_=+"
)

var codeAlphabet = upperChars + lowerChars + digitChars + symbolChars

// cryptoRandIntn returns a secure random number in [0, max)
// Uses crypto/rand instead of math/rand for security-sensitive operations
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be positive, got %d", max)
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}

// GenerateLoginCode produces a one-time code whose length is drawn uniformly
// from [minLen, maxLen]. The code is redrawn until it contains at least one
// uppercase letter, one lowercase letter, one digit and one symbol.
// A failure here means the random source is exhausted and is not recoverable.
func GenerateLoginCode(minLen, maxLen int) (string, error) {
	if minLen <= 0 {
		minLen = DefaultMinCodeLength
	}
	if maxLen < minLen {
		maxLen = minLen
	}

	for {
		length := minLen
		if maxLen > minLen {
			offset, err := cryptoRandIntn(maxLen - minLen + 1)
			if err != nil {
				return "", fmt.Errorf("failed to draw code length: %w", err)
			}
			length += offset
		}

		chars := make([]byte, length)
		for i := range chars {
			idx, err := cryptoRandIntn(len(codeAlphabet))
			if err != nil {
				return "", fmt.Errorf("failed to draw code character: %w", err)
			}
			chars[i] = codeAlphabet[idx]
		}

		code := string(chars)
		if hasCharacterDiversity(code) {
			return code, nil
		}
	}
}

// hasCharacterDiversity reports whether the code contains all four required
// character classes
func hasCharacterDiversity(code string) bool {
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

	return hasUpper && hasLower && hasDigit && hasSymbol
}

// HashLoginCode returns a salted bcrypt digest of the plaintext code.
// The salt is randomized per call, so hashing the same code twice yields
// different digests.
func HashLoginCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("code cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareLoginCode verifies a candidate code against a stored digest.
// bcrypt's comparison is constant-time with respect to correctness.
func CompareLoginCode(digest, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(code))
}

// MaskCode returns the last four characters of a code prefixed with asterisks,
// safe for audit detail fields
func MaskCode(code string) string {
	if len(code) <= 4 {
		return strings.Repeat("*", len(code))
	}
	return "****" + code[len(code)-4:]
}
