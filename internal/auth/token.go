package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretLength  = 8
	maxTokenIDLength = 32
)

var tokenIDPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?$`)

// NormalizeTokenID returns the canonical lowercase token id and validates
// allowed characters.
func NormalizeTokenID(raw string) (string, error) {
	id := strings.TrimSpace(strings.ToLower(raw))
	if id == "" {
		return "", fmt.Errorf("token id is required")
	}
	if len(id) > maxTokenIDLength {
		return "", fmt.Errorf("token id too long")
	}
	if !tokenIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid token id")
	}
	return id, nil
}

// ValidateSecret checks minimal secret requirements.
func ValidateSecret(secret string) error {
	if len(secret) < minSecretLength {
		return fmt.Errorf("secret must be at least %d characters", minSecretLength)
	}
	return nil
}

// HashSecret hashes one plaintext token secret for the projects file.
func HashSecret(secret string) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifySecret verifies a plaintext secret against a bcrypt hash.
func VerifySecret(secretHash, candidate string) bool {
	if strings.TrimSpace(secretHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(candidate)) == nil
}
