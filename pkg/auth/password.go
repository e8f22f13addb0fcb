package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltBytes = 16
	keyLength = 64

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// UnknownUserHash has the shape of a real hash so that VerifyPassword against it costs a
// full key derivation. No password is expected to match it.
var UnknownUserHash = strings.Repeat("0", 2*saltBytes) + ":" + strings.Repeat("0", 2*keyLength)

// HashPassword derives an scrypt key from password with a fresh random salt and
// returns it as "saltHex:keyHex".
func HashPassword(password string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	key, err := derive(password, salt)
	if err != nil {
		return "", err
	}
	return salt + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches a hash produced by HashPassword.
// Malformed hashes never match.
func VerifyPassword(password, hash string) bool {
	salt, keyHex, ok := strings.Cut(hash, ":")
	if !ok || salt == "" {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) != keyLength {
		return false
	}
	got, err := derive(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// The hex-encoded salt string itself is the scrypt salt.
func derive(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
