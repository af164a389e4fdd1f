package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"

	"github.com/edupegoretti/sitec/params"
	"golang.org/x/crypto/pbkdf2"
)

// HashPassword derives a credential record from a plaintext password:
// base64(salt || derivedKey) with a fresh random salt on every call.
// Persisting the record is the caller's job; it lives in deployment
// configuration, not in a database.
func HashPassword(password string) (string, error) {
	salt := make([]byte, params.PasswordSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, params.PasswordIterations, params.PasswordKeyLength, sha512.New)
	record := make([]byte, 0, len(salt)+len(key))
	record = append(record, salt...)
	record = append(record, key...)
	return base64.StdEncoding.EncodeToString(record), nil
}

// VerifyPassword checks a password attempt against a stored credential record.
// Every failure mode, wrong password, undecodable record, wrong record length,
// collapses to false so callers cannot tell them apart. The comparison is
// constant time regardless of where the first mismatching byte occurs.
func VerifyPassword(password string, record string) bool {
	raw, err := base64.StdEncoding.DecodeString(record)
	if err != nil {
		slog.Error("Stored admin credential is not valid base64")
		return false
	}
	if len(raw) != params.PasswordSaltLength+params.PasswordKeyLength {
		slog.Error("Stored admin credential has unexpected length", "length", len(raw))
		return false
	}
	salt := raw[:params.PasswordSaltLength]
	expected := raw[params.PasswordSaltLength:]
	derived := pbkdf2.Key([]byte(password), salt, params.PasswordIterations, params.PasswordKeyLength, sha512.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
