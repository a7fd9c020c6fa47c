package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLength   = 16
	digestLength = 32
	scryptR      = 8
	scryptP      = 1

	// DefaultScryptN is the default CPU/memory cost factor.
	DefaultScryptN = 65536
)

// ErrMalformedDigest means a stored digest string does not have the
// $N$salt$digest shape. It indicates corrupt data, not a wrong password.
var ErrMalformedDigest = errors.New("malformed password digest")

// Hasher derives and verifies scrypt password digests. Digests are
// self-describing strings of the form $N$salt$digest with salt and digest
// base64-encoded, so the cost factor can be raised without invalidating
// existing records. Key derivation is deliberately expensive and must never
// run under a lock shared with other requests.
type Hasher struct {
	n int
}

func NewHasher(n int) (*Hasher, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("scrypt cost factor must be a power of two greater than 1, got %d", n)
	}
	return &Hasher{n: n}, nil
}

// Hash derives a digest for the password using a fresh random salt. Two
// calls with the same password produce different digests.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest, err := scrypt.Key([]byte(password), salt, h.n, scryptR, scryptP, digestLength)
	if err != nil {
		return "", fmt.Errorf("derive digest: %w", err)
	}

	// base64 never emits '$', so the delimiter cannot collide.
	return "$" + strconv.Itoa(h.n) +
		"$" + base64.RawStdEncoding.EncodeToString(salt) +
		"$" + base64.RawStdEncoding.EncodeToString(digest), nil
}

// Verify recomputes the digest with the salt and cost factor recorded in the
// stored string and compares in constant time. The cost factor comes from
// the stored digest, not the hasher, so records hashed under an older
// configuration still verify.
func (h *Hasher) Verify(password string, stored string) (bool, error) {
	n, salt, want, err := explode(stored)
	if err != nil {
		return false, err
	}

	got, err := scrypt.Key([]byte(password), salt, n, scryptR, scryptP, len(want))
	if err != nil {
		return false, fmt.Errorf("derive digest: %w", err)
	}

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func explode(stored string) (int, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != "" {
		return 0, nil, nil, ErrMalformedDigest
	}

	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 2 || n&(n-1) != 0 {
		return 0, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, ErrMalformedDigest
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(digest) == 0 {
		return 0, nil, nil, ErrMalformedDigest
	}

	return n, salt, digest, nil
}
