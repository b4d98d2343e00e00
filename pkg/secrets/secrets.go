// Package secrets generates and checks the admin tokens that guard the
// cache-purge surface. Tokens are random, stored only as bcrypt hashes, and
// compared in constant time.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "dossard/pkg/domain-errors"
)

// tokenBytes is the entropy of a generated token before encoding. 32 bytes
// keeps the encoded form under bcrypt's 72-byte input ceiling.
const tokenBytes = 32

// Generate creates a random admin token, base64-encoded for safe transport
// in headers and environment variables.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash produces the bcrypt hash of a token for storage. Deployments put the
// hash, never the token, in configuration.
func Hash(token string) (string, error) {
	if token == "" {
		return "", dErrors.New(dErrors.CodeValidation, "token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "token is too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash token")
	}
	return string(hashed), nil
}

// Verify checks a presented token against a stored bcrypt hash.
func Verify(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify token")
	}
	return nil
}
