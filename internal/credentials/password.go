package credentials

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Hashing policy for new hashes. Stored parameters always win during
// verification so the policy can be raised without invalidating old hashes.
const (
	pbkdf2Algo       = "pbkdf2-sha512"
	pbkdf2Iterations = 210_000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 64
)

var b64 = base64.RawStdEncoding

// HashPassword derives a salted PBKDF2-SHA512 hash of plaintext and encodes
// it as "pbkdf2-sha512$<iterations>$<salt>$<key>". The plaintext is not
// retained by this package.
func (Store) HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(plaintext), salt, pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return fmt.Sprintf("%s$%d$%s$%s", pbkdf2Algo, pbkdf2Iterations, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword re-derives the key with the parameters baked into encoded
// and compares in constant time. Malformed encodings verify as false rather
// than erroring so callers cannot distinguish them from a wrong password.
func (Store) VerifyPassword(plaintext, encoded string) bool {
	if plaintext == "" {
		return false
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Algo {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false
	}
	salt, err := b64.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
