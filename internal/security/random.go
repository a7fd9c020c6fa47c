package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// IDLength is the length of generated identifiers, prefix excluded.
const IDLength = 24

var alphabetSize = big.NewInt(int64(len(idAlphabet)))

// RandomID returns an unguessable identifier of IDLength case-sensitive
// alphanumeric characters drawn from crypto/rand. A non-empty prefix is
// prepended with an underscore.
func RandomID(prefix string) (string, error) {
	buf := make([]byte, IDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}

	if prefix != "" {
		return prefix + "_" + string(buf), nil
	}
	return string(buf), nil
}
