// Package passhash hashes and verifies operator account passwords with
// Argon2id, and issues/validates the JWTs used by the HTTP API.
package passhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params controls the cost parameters of the hash.
type Argon2Params struct {
	Memory      uint32 // KB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the parameters used unless the caller
// supplies its own via HashPasswordWithParams.
func DefaultArgon2Params() *Argon2Params {
	return &Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errInvalidHash = errors.New("passhash: invalid hash format")
var errUnsupportedAlgorithm = errors.New("passhash: unsupported hash algorithm")

// HashPassword hashes a password with the default parameters.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultArgon2Params())
}

// HashPasswordWithParams hashes a password, encoding the parameters and
// salt alongside the derived key in PHC-style form:
// $argon2id$v=<version>$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func HashPasswordWithParams(password string, p *Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("passhash: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// VerifyPassword checks a password against a PHC-encoded Argon2id hash
// in constant time.
func VerifyPassword(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errInvalidHash
	}
	if parts[1] != "argon2id" {
		return false, errUnsupportedAlgorithm
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, errInvalidHash
	}
	if version != argon2.Version {
		return false, fmt.Errorf("passhash: unsupported argon2 version %d", version)
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}
	wantKey, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, errInvalidHash
	}

	gotKey := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(wantKey)))

	return subtle.ConstantTimeCompare(gotKey, wantKey) == 1, nil
}

// GenerateRandomString returns a URL-safe random string of the given
// length, used for things like one-time tokens outside the JWT flow.
func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("passhash: generate random bytes: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(b)
	if len(encoded) < length {
		return "", fmt.Errorf("passhash: encoded length %d shorter than requested %d", len(encoded), length)
	}
	return encoded[:length], nil
}
